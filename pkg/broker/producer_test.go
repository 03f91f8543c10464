package broker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}

	f.msgs = append(f.msgs, msgs...)

	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestProducer_Send(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &Producer{l: slog.Default(), w: w, notificationsTopic: "notifications"}

	err := p.Send(context.Background(), "jane@example.com", "Welcome", "<p>hi</p>", true)
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, "notifications", msg.Topic)
	require.Equal(t, "jane@example.com", string(msg.Key))

	var event SendEmailEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	require.Equal(t, SendEmailEvent{
		Type:        "email",
		Subject:     "Welcome",
		Message:     "<p>hi</p>",
		Recipients:  []string{"jane@example.com"},
		ContentType: "text/html",
	}, event)
}

func TestProducer_SendError(t *testing.T) {
	t.Parallel()

	p := &Producer{l: slog.Default(), w: &fakeWriter{err: errors.New("broker down")}, notificationsTopic: "n"}

	err := p.Send(context.Background(), "jane@example.com", "s", "b", false)
	require.ErrorContains(t, err, "broker down")
}
