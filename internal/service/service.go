package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/pkg/metrics"
	"github.com/samandr77/crm/pkg/reference"
)

type Repository interface {
	CreateUser(ctx context.Context, u entity.User) error
	UserByEmail(ctx context.Context, email string) (entity.User, error)
	SaveLoginAttempt(ctx context.Context, a entity.LoginAttempt) error
	FailedLogins(ctx context.Context, email string, since time.Time) (int, error)
	CleanLoginAttempts(ctx context.Context, before time.Time) (int64, error)
	UserByID(ctx context.Context, id uuid.UUID) (entity.User, error)
	Users(ctx context.Context) ([]entity.UserSummary, error)
	CountAdmins(ctx context.Context) (int, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (entity.UserDeletion, error)

	Groups(ctx context.Context) ([]entity.CustomerGroup, error)
	CreateGroup(ctx context.Context, g entity.CustomerGroup) error
	SeedGroups(ctx context.Context, groups []entity.CustomerGroup) (int, error)

	CreateCustomer(ctx context.Context, prefix string, c *entity.Customer, notice func(entity.Customer) entity.Notification) error
	Customer(ctx context.Context, caller entity.Caller, id string) (entity.CustomerView, error)
	Customers(ctx context.Context, caller entity.Caller, filter entity.CustomerFilter) ([]entity.CustomerView, error)
	PendingCustomers(ctx context.Context) ([]entity.CustomerView, error)
	UpdateCustomer(ctx context.Context, caller entity.Caller, id string, upd entity.CustomerUpdate) error
	UpdateCustomerStatus(ctx context.Context, caller entity.Caller, id, status string) error
	ApproveCustomer(ctx context.Context, id string, approverID uuid.UUID, at time.Time) (entity.Customer, error)
	RejectCustomer(ctx context.Context, id string) (entity.CascadeResult, error)
	DeleteCustomer(ctx context.Context, id string) (entity.CascadeResult, error)

	CreateService(ctx context.Context, caller entity.Caller, s entity.Service) error
	Services(ctx context.Context, caller entity.Caller, customerID string) ([]entity.ServiceView, error)

	CreateTask(ctx context.Context, caller entity.Caller, t entity.WorkTask) error
	Tasks(ctx context.Context, caller entity.Caller, serviceID *uuid.UUID) ([]entity.TaskView, error)
	Task(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.TaskView, error)
	UpdateTask(ctx context.Context, caller entity.Caller, id uuid.UUID, upd entity.TaskUpdate, at time.Time) error

	CreatePayment(ctx context.Context, caller entity.Caller, p entity.Payment) error
	Payments(ctx context.Context, caller entity.Caller, serviceID *uuid.UUID) ([]entity.PaymentView, error)
	Payment(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.PaymentView, error)
	UpdatePayment(ctx context.Context, caller entity.Caller, id uuid.UUID, upd entity.PaymentUpdate) (entity.PaymentView, error)

	CreateDocument(ctx context.Context, caller entity.Caller, d entity.Document) error
	Documents(ctx context.Context, caller entity.Caller, customerID string) ([]entity.DocumentView, error)
	UpdateDocumentStatus(ctx context.Context, caller entity.Caller, id uuid.UUID, status string) error
	Document(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.DocumentView, error)
	SetDocumentFile(ctx context.Context, caller entity.Caller, id uuid.UUID, f entity.DocumentFile) (string, error)

	CreateMeeting(ctx context.Context, caller entity.Caller, m entity.Meeting, notice func(entity.Meeting) entity.Notification) error
	Meetings(ctx context.Context, caller entity.Caller, customerID string) ([]entity.MeetingView, error)
	PendingMeetings(ctx context.Context) ([]entity.MeetingView, error)
	ApproveMeeting(ctx context.Context, id, approverID uuid.UUID, at time.Time) (entity.Meeting, error)
	RejectMeeting(ctx context.Context, id uuid.UUID) error
	SetMeetingCalendarLink(ctx context.Context, id uuid.UUID, link string) error

	CreateNotification(ctx context.Context, n entity.Notification) error
	Notifications(ctx context.Context, caller entity.Caller) ([]entity.Notification, error)
	MarkNotificationRead(ctx context.Context, caller entity.Caller, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, caller entity.Caller) (int64, error)
	UnreadNotifications(ctx context.Context, caller entity.Caller) (int, error)

	Dashboard(ctx context.Context, caller entity.Caller, now time.Time) (entity.Dashboard, error)
}

const (
	defaultDeliveryTimeout = 10 * time.Second
	defaultLoginWindow     = 15 * time.Minute
	defaultMaxFileSize     = 20 << 20
)

type Options struct {
	// DeliveryTimeout bounds every e-mail and calendar call.
	DeliveryTimeout time.Duration
	// MaxFailedLogins locks an e-mail out after that many failures within LoginWindow. Zero disables it.
	MaxFailedLogins int
	LoginWindow     time.Duration
	MaxFileSize     int64
	Now             func() time.Time
}

type Service struct {
	repo     Repository
	hasher   Hasher
	mailer   Mailer
	calendar Calendar
	storage  Storage
	ref      reference.Data
	opts     Options

	dummyOnce sync.Once
	dummy     string
}

// New builds the service. mailer and calendar may be nil, the matching deliveries are then skipped.
// A nil storage disables document files.
func New(
	repo Repository,
	hasher Hasher,
	mailer Mailer,
	calendar Calendar,
	storage Storage,
	ref reference.Data,
	opts Options,
) *Service {
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = defaultDeliveryTimeout
	}

	if opts.LoginWindow <= 0 {
		opts.LoginWindow = defaultLoginWindow
	}

	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:     repo,
		hasher:   hasher,
		mailer:   mailer,
		calendar: calendar,
		storage:  storage,
		ref:      ref,
		opts:     opts,
	}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

func requireAdmin(caller entity.Caller) error {
	if !caller.IsAdmin() {
		return entity.ErrAdminOnly
	}

	return nil
}

// sendMail is best effort: the outcome is reported, never returned as an error.
// The primary write has already been committed when it runs.
func (s *Service) sendMail(ctx context.Context, to, subject, body string, isHTML bool) entity.Delivery {
	if s.mailer == nil {
		metrics.Deliveries.WithLabelValues("email", metrics.ResultDisabled).Inc()
		return entity.Delivery{Detail: "e-mail delivery is disabled"}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.DeliveryTimeout)
	defer cancel()

	err := s.mailer.Send(ctx, to, subject, body, isHTML)
	if err != nil {
		metrics.Deliveries.WithLabelValues("email", metrics.ResultFailed).Inc()
		slog.WarnContext(ctx, fmt.Sprintf("send e-mail %q to %s: %s", subject, to, err))

		return entity.Delivery{Detail: err.Error()}
	}

	metrics.Deliveries.WithLabelValues("email", metrics.ResultOK).Inc()

	return entity.Delivery{Sent: true, Detail: "sent to " + to}
}

// notifyByMail mails a user by id. A missing user is reported as an undelivered message.
func (s *Service) notifyByMail(ctx context.Context, userID *uuid.UUID, subject, body string) entity.Delivery {
	if userID == nil {
		return entity.Delivery{Detail: "no recipient"}
	}

	u, err := s.repo.UserByID(ctx, *userID)
	if err != nil {
		slog.WarnContext(ctx, fmt.Sprintf("mail recipient %s: %s", userID, err))
		return entity.Delivery{Detail: "recipient not found"}
	}

	return s.sendMail(ctx, u.Email, subject, body, false)
}

// createCalendarEvent is best effort and returns an empty link when the event could not be created.
func (s *Service) createCalendarEvent(ctx context.Context, m entity.Meeting) string {
	if s.calendar == nil {
		metrics.Deliveries.WithLabelValues("calendar", metrics.ResultDisabled).Inc()
		return ""
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.DeliveryTimeout)
	defer cancel()

	link, err := s.calendar.CreateEvent(ctx, entity.CalendarEvent{
		Title:       m.Title,
		Description: m.Description,
		Start:       m.StartsAt,
		End:         m.EndsAt,
		Attendees:   m.Attendees,
	})
	if err != nil {
		metrics.Deliveries.WithLabelValues("calendar", metrics.ResultFailed).Inc()
		slog.WarnContext(ctx, fmt.Sprintf("create calendar event for meeting %s: %s", m.ID, err))

		return ""
	}

	metrics.Deliveries.WithLabelValues("calendar", metrics.ResultOK).Inc()

	return link
}
