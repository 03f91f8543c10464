package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/samandr77/crm/pkg/broker"
)

var ErrNoRecipients = errors.New("event has no recipients")

type Mailer interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

// MailHandler delivers e-mail events written by broker.Producer.
type MailHandler struct {
	m Mailer
}

func NewMailHandler(m Mailer) *MailHandler {
	return &MailHandler{m: m}
}

func (h *MailHandler) SendEmail(ctx context.Context, msg kafka.Message) error {
	var event broker.SendEmailEvent

	err := json.Unmarshal(msg.Value, &event)
	if err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	if len(event.Recipients) == 0 {
		return ErrNoRecipients
	}

	isHTML := event.ContentType == broker.ContentTypeHTML

	var errs []error

	for _, to := range event.Recipients {
		err = h.m.Send(ctx, to, event.Subject, event.Message, isHTML)
		if err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", to, err))
			continue
		}

		slog.InfoContext(ctx, "email relayed", "to", to, "subject", event.Subject)
	}

	return errors.Join(errs...)
}
