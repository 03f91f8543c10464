package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samandr77/crm/internal/api/events"
	"github.com/samandr77/crm/internal/clients/calendar"
	"github.com/samandr77/crm/internal/clients/gomail"
	"github.com/samandr77/crm/internal/clients/s3"
	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/internal/repository"
	"github.com/samandr77/crm/internal/service"
	"github.com/samandr77/crm/pkg/broker"
	"github.com/samandr77/crm/pkg/config"
	"github.com/samandr77/crm/pkg/database"
	"github.com/samandr77/crm/pkg/reference"
	"github.com/samandr77/crm/pkg/security"
)

var (
	ErrUnknownMailTransport = errors.New("unknown mail transport")
	ErrMailRelayConfig      = errors.New("mail relay needs KAFKA_BROKERS and MAILER_HOST")
)

// App holds the dependencies shared by the HTTP server and the operator CLI.
type App struct {
	Config  config.Config
	Dialect database.Dialect
	DB      *sql.DB
	Service *service.Service
	Tokens  *security.TokenManager

	closers []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	mailer, closeMailer, err := NewMailer(slog.Default(), cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(ctx, dialect, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		closeMailer()
		return nil, fmt.Errorf("connect to %s: %w", dialect, err)
	}

	ref, err := reference.Load()
	if err != nil {
		closeMailer()
		db.Close()

		return nil, fmt.Errorf("load reference data: %w", err)
	}

	storage, err := NewStorage(ctx, cfg.Storage)
	if err != nil {
		closeMailer()
		db.Close()

		return nil, err
	}

	svc := service.New(
		repository.New(db, dialect),
		security.NewBcryptHasher(cfg.BcryptCost),
		mailer,
		NewCalendar(cfg.Calendar),
		storage,
		ref,
		service.Options{
			DeliveryTimeout: cfg.Mail.Timeout,
			MaxFailedLogins: cfg.LoginMaxFailed,
			LoginWindow:     cfg.LoginWindow,
			MaxFileSize:     cfg.Storage.MaxFileSize,
		},
	)

	return &App{
		Config:  cfg,
		Dialect: dialect,
		DB:      db,
		Service: svc,
		Tokens:  security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		closers: []func(){closeMailer, func() { db.Close() }},
	}, nil
}

func (a *App) Migrate(ctx context.Context) error {
	err := database.UpMigrations(ctx, a.DB, a.Dialect)
	if err != nil {
		return fmt.Errorf("up migrations: %w", err)
	}

	return nil
}

// Bootstrap seeds the configured admin when no admin exists yet.
func (a *App) Bootstrap(ctx context.Context) (bool, error) {
	return a.Service.Bootstrap(ctx, entity.NewUser{
		Email:    a.Config.Bootstrap.AdminEmail,
		Password: a.Config.Bootstrap.AdminPassword,
		Name:     a.Config.Bootstrap.AdminName,
	})
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// NewMailer picks the e-mail transport. A nil mailer disables e-mail.
func NewMailer(l *slog.Logger, cfg config.Config) (service.Mailer, func(), error) {
	switch cfg.Mail.Transport {
	case config.MailTransportNone, "":
		return nil, func() {}, nil
	case config.MailTransportSMTP:
		return gomail.New(cfg.Mail), func() {}, nil
	case config.MailTransportKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil, fmt.Errorf("%w: %s requires KAFKA_BROKERS", ErrUnknownMailTransport, cfg.Mail.Transport)
		}

		p := broker.NewProducer(l, cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)

		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownMailTransport, cfg.Mail.Transport)
	}
}

// NewMailRelay consumes the events written by the kafka mail transport and delivers them over SMTP.
func NewMailRelay(l *slog.Logger, cfg config.Config) (*broker.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Mail.MailerHost == "" {
		return nil, ErrMailRelayConfig
	}

	h := events.NewMailHandler(gomail.New(cfg.Mail))

	c := broker.NewConsumer(l, cfg.Kafka.Brokers, cfg.Kafka.ConsumerID, cfg.Kafka.NotificationTopic).
		Handle(cfg.Kafka.NotificationTopic, h.SendEmail)

	return c, nil
}

// NewStorage returns nil when no bucket is configured.
func NewStorage(ctx context.Context, cfg config.Storage) (service.Storage, error) {
	if cfg.Bucket == "" {
		return nil, nil //nolint:nilnil
	}

	c, err := s3.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return c, nil
}

// NewCalendar returns nil when no calendar service is configured.
func NewCalendar(cfg config.Calendar) service.Calendar {
	if cfg.URL == "" {
		return nil
	}

	return calendar.NewClient(cfg)
}
