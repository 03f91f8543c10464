package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samandr77/crm/pkg/logger"
)

// LoggingRoundTripper forwards the request id and logs every outbound call.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	// Token is sent as a bearer token when set.
	Token string
}

func NewLoggingRoundTripper(transport http.RoundTripper, token string) *LoggingRoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &LoggingRoundTripper{Transport: transport, Token: token}
}

func (l *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	r = r.Clone(ctx)

	reqID := logger.RequestIDFromCtx(ctx)
	if reqID != "" {
		r.Header.Set("X-Request-Id", reqID)
	}

	if l.Token != "" {
		r.Header.Set("Authorization", "Bearer "+l.Token)
	}

	slog.InfoContext(ctx, "outgoing request", "request", fmt.Sprintf("%s %s", r.Method, r.URL.Redacted()))

	start := time.Now()

	resp, err := l.Transport.RoundTrip(r)
	if err != nil {
		return nil, fmt.Errorf("round trip: %w", err)
	}

	slog.InfoContext(ctx, "incoming response",
		"response", fmt.Sprintf("%s %s", r.Method, r.URL.Redacted()),
		"status", resp.StatusCode,
		"elapsed", time.Since(start).String(),
	)

	return resp, nil
}
