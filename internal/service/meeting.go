package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/pkg/metrics"
)

// CreateMeeting goes through the same approval gate as a customer. Meetings created by an admin are
// approved at once and get a calendar event.
func (s *Service) CreateMeeting(ctx context.Context, caller entity.Caller, m entity.Meeting) (entity.Meeting, error) {
	m.Title = strings.TrimSpace(m.Title)
	m.StartsAt = m.StartsAt.UTC()
	m.EndsAt = m.EndsAt.UTC()

	if m.Attendees == nil {
		m.Attendees = []string{}
	}

	err := validateMeeting(m)
	if err != nil {
		return entity.Meeting{}, err
	}

	m.ID = uuid.Must(uuid.NewV4())
	m.Approved = caller.IsAdmin()
	m.CreatedBy = caller.UserRef()
	m.CalendarLink = ""
	m.CreatedAt = s.now()

	var notice func(entity.Meeting) entity.Notification

	decision := approvalAuto

	if !m.Approved {
		decision = approvalPending
		notice = func(m entity.Meeting) entity.Notification {
			return entity.MeetingApprovalNotification(m, caller.Name, s.now())
		}
	}

	err = s.repo.CreateMeeting(ctx, caller, m, notice)
	if err != nil {
		return entity.Meeting{}, fmt.Errorf("create meeting for customer %s: %w", m.CustomerID, err)
	}

	metrics.ApprovalEvents.WithLabelValues("meeting", decision).Inc()

	if m.Approved {
		m.CalendarLink = s.attachCalendarEvent(ctx, m)
	}

	return m, nil
}

func (s *Service) attachCalendarEvent(ctx context.Context, m entity.Meeting) string {
	link := s.createCalendarEvent(ctx, m)
	if link == "" {
		return ""
	}

	err := s.repo.SetMeetingCalendarLink(ctx, m.ID, link)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("save calendar link of meeting %s: %s", m.ID, err))
		return ""
	}

	return link
}

func (s *Service) Meetings(ctx context.Context, caller entity.Caller, customerID string) ([]entity.MeetingView, error) {
	return s.repo.Meetings(ctx, caller, customerID)
}

func (s *Service) PendingMeetings(ctx context.Context, caller entity.Caller) ([]entity.MeetingView, error) {
	err := requireAdmin(caller)
	if err != nil {
		return nil, err
	}

	return s.repo.PendingMeetings(ctx)
}

// ApproveMeeting approves a pending meeting, then creates its calendar event and mails the creator.
func (s *Service) ApproveMeeting(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.Meeting, entity.Delivery, error) {
	err := requireAdmin(caller)
	if err != nil {
		return entity.Meeting{}, entity.Delivery{}, err
	}

	m, err := s.repo.ApproveMeeting(ctx, id, caller.ID, s.now())
	if err != nil {
		return entity.Meeting{}, entity.Delivery{}, fmt.Errorf("approve meeting %s: %w", id, err)
	}

	metrics.ApprovalEvents.WithLabelValues("meeting", approvalApproved).Inc()

	m.CalendarLink = s.attachCalendarEvent(ctx, m)

	delivery := entity.Delivery{Detail: "creator is the approver"}
	if m.CreatedBy != nil && *m.CreatedBy != caller.ID {
		delivery = s.notifyByMail(ctx, m.CreatedBy, "Meeting approved",
			fmt.Sprintf("Meeting %q has been approved by %s.", m.Title, caller.Name))
	}

	return m, delivery, nil
}

func (s *Service) RejectMeeting(ctx context.Context, caller entity.Caller, id uuid.UUID) error {
	err := requireAdmin(caller)
	if err != nil {
		return err
	}

	err = s.repo.RejectMeeting(ctx, id)
	if err != nil {
		return fmt.Errorf("reject meeting %s: %w", id, err)
	}

	metrics.ApprovalEvents.WithLabelValues("meeting", approvalRejected).Inc()

	return nil
}
