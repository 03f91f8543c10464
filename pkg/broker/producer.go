package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	ContentTypeHTML  = "text/html"
	ContentTypePlain = "text/plain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer hands e-mails to the notification service through a kafka topic.
type Producer struct {
	l                  *slog.Logger
	w                  messageWriter
	notificationsTopic string
}

func NewProducer(l *slog.Logger, brokers []string, topic string) *Producer {
	l = l.WithGroup("kafka").With("topic", topic)

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           10 * time.Second,
		Logger:                 &infoLogger{l: l},
		ErrorLogger:            &errorLogger{l: l},
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		l:                  l,
		w:                  w,
		notificationsTopic: topic,
	}
}

type SendEmailEvent struct {
	Type        string   `json:"type"`
	Subject     string   `json:"subject"`
	Message     string   `json:"message"`
	Recipients  []string `json:"recipients"`
	ContentType string   `json:"content_type"`
}

// Send writes the e-mail event synchronously, so a broker failure is reported to the caller.
func (p *Producer) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	contentType := ContentTypePlain
	if isHTML {
		contentType = ContentTypeHTML
	}

	event := SendEmailEvent{
		Type:        "email",
		Subject:     subject,
		Message:     body,
		Recipients:  []string{to},
		ContentType: contentType,
	}

	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(to),
		Value: b,
		Topic: p.notificationsTopic,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	return nil
}

func (p *Producer) Close() {
	err := p.w.Close()
	if err != nil {
		p.l.Error(fmt.Sprintf("close kafka writer: %s", err))
	}
}
