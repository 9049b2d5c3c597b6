package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()

	prev := defaultLogger
	t.Cleanup(func() { defaultLogger = prev })

	var buf bytes.Buffer
	SetOutput(&buf, level)

	return &buf
}

func TestErrorErr_AppendsError(t *testing.T) {
	buf := capture(t, slog.LevelDebug)

	ErrorErr(errors.New("boom"), "refresh failed", "user_id", "u-1")

	out := buf.String()
	assert.Contains(t, out, "refresh failed")
	assert.Contains(t, out, "user_id=u-1")
	assert.Contains(t, out, "error=boom")
}

func TestLevelThreshold(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	Debug("hidden")
	Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in, slog.LevelInfo), tt.in)
	}
}

func TestContextLogger(t *testing.T) {
	buf := capture(t, slog.LevelDebug)

	ctx := WithContext(context.Background(), With("request_id", "r-1"))
	FromContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), "request_id=r-1")
	assert.Equal(t, defaultLogger, FromContext(context.Background()))
}
