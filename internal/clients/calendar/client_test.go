package calendar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samandr77/crm/internal/clients/calendar"
	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/pkg/config"
)

func TestClient_CreateEvent(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	event := entity.CalendarEvent{
		Title:     "Kickoff",
		Start:     start,
		End:       start.Add(time.Hour),
		Attendees: []string{"a@acme.test"},
	}

	tests := []struct {
		name     string
		handler  func(calls int32) (int, string)
		wantLink string
		wantCall int32
		errFn    require.ErrorAssertionFunc
	}{
		{
			name: "created",
			handler: func(int32) (int, string) {
				return http.StatusCreated, `{"id": "1", "link": "https://calendar.test/e/1"}`
			},
			wantLink: "https://calendar.test/e/1",
			wantCall: 1,
			errFn:    require.NoError,
		},
		{
			name: "retried after server error",
			handler: func(calls int32) (int, string) {
				if calls == 1 {
					return http.StatusBadGateway, `bad gateway`
				}

				return http.StatusOK, `{"id": "2", "link": "https://calendar.test/e/2"}`
			},
			wantLink: "https://calendar.test/e/2",
			wantCall: 2,
			errFn:    require.NoError,
		},
		{
			name: "client error is not retried",
			handler: func(int32) (int, string) {
				return http.StatusBadRequest, `{"error": "bad attendees"}`
			},
			wantCall: 1,
			errFn:    require.Error,
		},
		{
			name: "empty link",
			handler: func(int32) (int, string) {
				return http.StatusCreated, `{"id": "3"}`
			},
			wantCall: 1,
			errFn: func(t require.TestingT, err error, _ ...any) {
				require.ErrorIs(t, err, calendar.ErrEmptyLink)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)

				require.Equal(t, "/events", r.URL.Path)
				require.Equal(t, "Bearer token", r.Header.Get("Authorization"))

				var req calendar.EventRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				require.Equal(t, event.Title, req.Title)
				require.Equal(t, event.Attendees, req.Attendees)

				code, body := tt.handler(n)
				w.WriteHeader(code)
				_, _ = w.Write([]byte(body))
			}))
			t.Cleanup(server.Close)

			c := calendar.NewClient(config.Calendar{
				URL:           server.URL + "/",
				Token:         "token",
				Timeout:       time.Second * 5,
				RetryAttempts: 2,
			})

			link, err := c.CreateEvent(context.Background(), event)
			tt.errFn(t, err)
			require.Equal(t, tt.wantLink, link)
			require.Equal(t, tt.wantCall, calls.Load())
		})
	}
}
