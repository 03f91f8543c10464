package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

func (r *Repository) insertNotification(ctx context.Context, q querier, n entity.Notification) error {
	_, err := exec(ctx, q, r.sb.Insert("notifications").
		Columns("id", "user_id", "message", "type", "related_id", "read", "created_at").
		Values(n.ID, n.UserID, n.Message, n.Type, n.RelatedID, n.Read, n.CreatedAt))

	return err
}

func (r *Repository) CreateNotification(ctx context.Context, n entity.Notification) error {
	return r.insertNotification(ctx, r.db, n)
}

// notificationsOf scopes notifications to the caller. Admins see everything,
// including broadcasts; everyone else sees only the rows targeted at them.
func notificationsOf(caller entity.Caller) sq.Sqlizer {
	if caller.IsAdmin() {
		return sq.Expr("1 = 1")
	}

	return sq.Eq{"user_id": caller.ID}
}

func (r *Repository) Notifications(ctx context.Context, caller entity.Caller) ([]entity.Notification, error) {
	b := r.sb.Select("id", "user_id", "message", "type", "related_id", "read", "created_at").
		From("notifications").
		Where(notificationsOf(caller)).
		OrderBy("created_at DESC", "id DESC")

	return queryAll(ctx, r.db, b, func(s scanner) (entity.Notification, error) {
		var n entity.Notification

		err := s.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.RelatedID, &n.Read, &n.CreatedAt)

		return n, err
	})
}

// MarkNotificationRead is idempotent for a notification the caller can see.
func (r *Repository) MarkNotificationRead(ctx context.Context, caller entity.Caller, id uuid.UUID) error {
	n, err := exec(ctx, r.db, r.sb.Update("notifications").Set("read", true).
		Where(sq.Eq{"id": id}).Where(notificationsOf(caller)))
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: notification %s", entity.ErrNotFound, id)
	}

	return nil
}

func (r *Repository) MarkAllNotificationsRead(ctx context.Context, caller entity.Caller) (int64, error) {
	return exec(ctx, r.db, r.sb.Update("notifications").Set("read", true).
		Where(sq.Eq{"read": false}).Where(notificationsOf(caller)))
}

func (r *Repository) UnreadNotifications(ctx context.Context, caller entity.Caller) (int, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("notifications").
		Where(sq.Eq{"read": false}).Where(notificationsOf(caller)))
}
