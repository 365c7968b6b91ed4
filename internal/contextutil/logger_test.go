package contextutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	if got := LoggerFromContext(context.Background()); got != slog.Default() {
		t.Error("LoggerFromContext() without logger should return slog.Default()")
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "abc")
	ctx := WithLogger(context.Background(), logger)

	LoggerFromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("log output = %q, want request_id attribute", buf.String())
	}
}
