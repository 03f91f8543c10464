package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/samandr77/crm/internal/api/events"
	"github.com/samandr77/crm/internal/mocks"
	"github.com/samandr77/crm/pkg/broker"
)

func message(t *testing.T, event broker.SendEmailEvent) kafka.Message {
	t.Helper()

	b, err := json.Marshal(event)
	require.NoError(t, err)

	return kafka.Message{Topic: "notifications", Value: b}
}

func TestMailHandler_SendEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     func(t *testing.T) kafka.Message
		prepare func(m *mocks.MockMailer)
		errFn   require.ErrorAssertionFunc
	}{
		{
			name: "html to every recipient",
			msg: func(t *testing.T) kafka.Message {
				return message(t, broker.SendEmailEvent{
					Type:        "email",
					Subject:     "Customer approved",
					Message:     "<p>VNDC000001</p>",
					Recipients:  []string{"a@company.com", "b@company.com"},
					ContentType: broker.ContentTypeHTML,
				})
			},
			prepare: func(m *mocks.MockMailer) {
				m.EXPECT().Send(gomock.Any(), "a@company.com", "Customer approved", "<p>VNDC000001</p>", true).Return(nil)
				m.EXPECT().Send(gomock.Any(), "b@company.com", "Customer approved", "<p>VNDC000001</p>", true).Return(nil)
			},
			errFn: require.NoError,
		},
		{
			name: "one recipient fails",
			msg: func(t *testing.T) kafka.Message {
				return message(t, broker.SendEmailEvent{
					Subject:     "Welcome",
					Message:     "hi",
					Recipients:  []string{"a@company.com", "b@company.com"},
					ContentType: broker.ContentTypePlain,
				})
			},
			prepare: func(m *mocks.MockMailer) {
				m.EXPECT().Send(gomock.Any(), "a@company.com", "Welcome", "hi", false).Return(errors.New("smtp down"))
				m.EXPECT().Send(gomock.Any(), "b@company.com", "Welcome", "hi", false).Return(nil)
			},
			errFn: func(t require.TestingT, err error, _ ...any) {
				require.ErrorContains(t, err, "send to a@company.com: smtp down")
			},
		},
		{
			name: "no recipients",
			msg: func(t *testing.T) kafka.Message {
				return message(t, broker.SendEmailEvent{Subject: "Welcome"})
			},
			prepare: func(*mocks.MockMailer) {},
			errFn: func(t require.TestingT, err error, _ ...any) {
				require.ErrorIs(t, err, events.ErrNoRecipients)
			},
		},
		{
			name: "broken payload",
			msg: func(*testing.T) kafka.Message {
				return kafka.Message{Value: []byte("{")}
			},
			prepare: func(*mocks.MockMailer) {},
			errFn:   require.Error,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := mocks.NewMockMailer(gomock.NewController(t))
			tt.prepare(m)

			err := events.NewMailHandler(m).SendEmail(context.Background(), tt.msg(t))
			tt.errFn(t, err)
		})
	}
}
