package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samandr77/crm/pkg/logger"
)

//nolint:paralleltest
func TestHandler_AddsContextFields(t *testing.T) {
	buf := new(bytes.Buffer)

	l, err := logger.NewWithWriter(buf, "debug")
	require.NoError(t, err)

	ctx := logger.SetRequestID(context.Background(), "req-1")
	ctx = logger.SetUserID(ctx, "user-1")

	l.With("component", "test").InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "req-1", rec["request_id"])
	require.Equal(t, "user-1", rec["user_id"])
	require.Equal(t, "test", rec["component"])
	require.Equal(t, "req-1", logger.RequestIDFromCtx(ctx))

	slog.SetDefault(slog.New(slog.NewJSONHandler(new(bytes.Buffer), nil)))
}

func TestNew_InvalidLevel(t *testing.T) {
	t.Parallel()

	_, err := logger.NewWithWriter(new(bytes.Buffer), "loud")
	require.Error(t, err)
}
