package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/pkg/metrics"
)

// Notify appends a notification. A nil target broadcasts it to every admin.
func (s *Service) Notify(ctx context.Context, target *uuid.UUID, message, typ string, relatedID *string) (entity.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return entity.Notification{}, entity.ValidationError("message is required")
	}

	if typ == "" {
		return entity.Notification{}, entity.ValidationError("type is required")
	}

	n := entity.NewNotification(target, message, typ, relatedID, s.now())

	err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		return entity.Notification{}, err
	}

	return n, nil
}

func (s *Service) Notifications(ctx context.Context, caller entity.Caller) ([]entity.Notification, error) {
	return s.repo.Notifications(ctx, caller)
}

func (s *Service) MarkNotificationRead(ctx context.Context, caller entity.Caller, id uuid.UUID) error {
	return s.repo.MarkNotificationRead(ctx, caller, id)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, caller entity.Caller) (int64, error) {
	return s.repo.MarkAllNotificationsRead(ctx, caller)
}

func (s *Service) UnreadNotifications(ctx context.Context, caller entity.Caller) (int, error) {
	return s.repo.UnreadNotifications(ctx, caller)
}

func (s *Service) Dashboard(ctx context.Context, caller entity.Caller) (entity.Dashboard, error) {
	return s.repo.Dashboard(ctx, caller, s.now())
}

// RefreshBacklog publishes the approval queue and overdue task counts as gauges.
func (s *Service) RefreshBacklog(ctx context.Context) error {
	d, err := s.repo.Dashboard(ctx, entity.SystemCaller(), s.now())
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	metrics.Backlog.WithLabelValues("pending_customers").Set(float64(d.PendingCustomers))
	metrics.Backlog.WithLabelValues("pending_meetings").Set(float64(d.PendingMeetings))
	metrics.Backlog.WithLabelValues("overdue_tasks").Set(float64(d.OverdueTasks))

	return nil
}
