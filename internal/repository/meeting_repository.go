package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

const attendeeSeparator = ","

func joinAttendees(a []string) string {
	return strings.Join(a, attendeeSeparator)
}

func splitAttendees(s string) []string {
	if s == "" {
		return []string{}
	}

	return strings.Split(s, attendeeSeparator)
}

func meetingColumns() []string {
	return []string{
		"m.id", "m.customer_id", "m.title", "m.description", "m.starts_at", "m.ends_at",
		"m.attendees", "m.approved", "m.created_by", "m.calendar_link", "m.created_at",
	}
}

func scanMeeting(s scanner, extra ...any) (entity.Meeting, error) {
	var (
		m         entity.Meeting
		attendees string
	)

	dest := append([]any{
		&m.ID, &m.CustomerID, &m.Title, &m.Description, &m.StartsAt, &m.EndsAt,
		&attendees, &m.Approved, &m.CreatedBy, &m.CalendarLink, &m.CreatedAt,
	}, extra...)

	err := s.Scan(dest...)
	if err != nil {
		return entity.Meeting{}, err
	}

	m.Attendees = splitAttendees(attendees)

	return m, nil
}

func scanMeetingView(s scanner) (entity.MeetingView, error) {
	var v entity.MeetingView

	m, err := scanMeeting(s, &v.CompanyName, &v.CreatedByName)
	if err != nil {
		return entity.MeetingView{}, err
	}

	v.Meeting = m

	return v, nil
}

func (r *Repository) selectMeetingViews() sq.SelectBuilder {
	cols := append(meetingColumns(), "c.company_name", "COALESCE(u.name, '')")

	return r.sb.Select(cols...).
		From("meetings m").
		Join("customers c ON c.id = m.customer_id").
		LeftJoin("users u ON u.id = m.created_by")
}

// CreateMeeting stores m for a customer visible to the caller, with the optional approval notice.
func (r *Repository) CreateMeeting(
	ctx context.Context, caller entity.Caller, m entity.Meeting, notice func(entity.Meeting) entity.Notification,
) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.requireVisibleCustomer(ctx, tx, caller, m.CustomerID)
		if err != nil {
			return err
		}

		_, err = exec(ctx, tx, r.sb.Insert("meetings").
			Columns("id", "customer_id", "title", "description", "starts_at", "ends_at",
				"attendees", "approved", "created_by", "calendar_link", "created_at").
			Values(m.ID, m.CustomerID, m.Title, m.Description, m.StartsAt, m.EndsAt,
				joinAttendees(m.Attendees), m.Approved, m.CreatedBy, m.CalendarLink, m.CreatedAt))
		if err != nil {
			return err
		}

		if notice != nil {
			return r.insertNotification(ctx, tx, notice(m))
		}

		return nil
	})
}

// Meetings lists approved meetings of customers visible to the caller.
func (r *Repository) Meetings(ctx context.Context, caller entity.Caller, customerID string) ([]entity.MeetingView, error) {
	b := r.selectMeetingViews().
		Where(sq.Eq{"m.approved": true}).
		Where(visibleTo(caller)).
		OrderBy("m.starts_at", "m.id")

	if customerID != "" {
		b = b.Where(sq.Eq{"m.customer_id": customerID})
	}

	return queryAll(ctx, r.db, b, scanMeetingView)
}

func (r *Repository) PendingMeetings(ctx context.Context) ([]entity.MeetingView, error) {
	return queryAll(ctx, r.db,
		r.selectMeetingViews().Where(sq.Eq{"m.approved": false}).OrderBy("m.created_at", "m.id"),
		scanMeetingView)
}

func (r *Repository) meetingByID(ctx context.Context, q querier, id uuid.UUID) (entity.Meeting, error) {
	query, args, err := r.forUpdate(r.sb.Select(meetingColumns()...).From("meetings m").Where(sq.Eq{"m.id": id})).ToSql()
	if err != nil {
		return entity.Meeting{}, fmt.Errorf("%w: build query: %w", entity.ErrStorage, err)
	}

	m, err := scanMeeting(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		err = mapErr(err)
		if errors.Is(err, entity.ErrNotFound) {
			return entity.Meeting{}, fmt.Errorf("%w: meeting %s", entity.ErrNotFound, id)
		}

		return entity.Meeting{}, err
	}

	return m, nil
}

func (r *Repository) ApproveMeeting(ctx context.Context, id, approverID uuid.UUID, at time.Time) (entity.Meeting, error) {
	var m entity.Meeting

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error

		m, err = r.meetingByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if m.Approved {
			return entity.ErrAlreadyApproved
		}

		n, err := exec(ctx, tx, r.sb.Update("meetings").Set("approved", true).
			Where(sq.Eq{"id": id, "approved": false}))
		if err != nil {
			return err
		}

		if n == 0 {
			return entity.ErrAlreadyApproved
		}

		m.Approved = true

		_, err = exec(ctx, tx, r.sb.Update("notifications").Set("read", true).
			Where(sq.Eq{"related_id": id.String(), "type": entity.NotificationMeetingApproval}))
		if err != nil {
			return err
		}

		if m.CreatedBy != nil && *m.CreatedBy != approverID {
			return r.insertNotification(ctx, tx, entity.MeetingApprovedNotification(m, at))
		}

		return nil
	})
	if err != nil {
		return entity.Meeting{}, err
	}

	return m, nil
}

// RejectMeeting hard deletes a pending meeting and its notifications.
func (r *Repository) RejectMeeting(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		m, err := r.meetingByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if m.Approved {
			return entity.ErrNotPending
		}

		_, err = exec(ctx, tx, r.sb.Delete("notifications").Where(sq.Eq{"related_id": id.String()}))
		if err != nil {
			return err
		}

		_, err = exec(ctx, tx, r.sb.Delete("meetings").Where(sq.Eq{"id": id}))

		return err
	})
}

func (r *Repository) SetMeetingCalendarLink(ctx context.Context, id uuid.UUID, link string) error {
	n, err := exec(ctx, r.db, r.sb.Update("meetings").Set("calendar_link", link).Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: meeting %s", entity.ErrNotFound, id)
	}

	return nil
}
