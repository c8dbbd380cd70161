package application

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/example/ticket-queue/internal/logging"
)

func TestServiceLogger(t *testing.T) {
	t.Parallel()

	t.Run("context logger wins over base", func(t *testing.T) {
		t.Parallel()

		var requestBuf, baseBuf bytes.Buffer
		requestLogger := slog.New(slog.NewJSONHandler(&requestBuf, nil))
		base := slog.New(slog.NewJSONHandler(&baseBuf, nil))

		ctx := logging.ContextWithLogger(context.Background(), requestLogger)
		serviceLogger(ctx, base, "QueueService", "CallNext", "service_date", "2024-05-01").Info("done")

		if baseBuf.Len() != 0 {
			t.Fatalf("expected base logger to stay silent, got %q", baseBuf.String())
		}
		var record map[string]any
		if err := json.Unmarshal(requestBuf.Bytes(), &record); err != nil {
			t.Fatalf("decode log record: %v", err)
		}
		if record["service"] != "QueueService" || record["operation"] != "CallNext" || record["service_date"] != "2024-05-01" {
			t.Fatalf("unexpected attributes %v", record)
		}
	})

	t.Run("falls back to base and default", func(t *testing.T) {
		t.Parallel()

		if got := defaultLogger(nil); got != slog.Default() {
			t.Fatalf("expected default logger when none provided")
		}
		custom := slog.New(slog.NewTextHandler(io.Discard, nil))
		if got := defaultLogger(custom); got != custom {
			t.Fatalf("expected custom logger to be returned")
		}
		if serviceLogger(context.Background(), nil, "QueueService", "") == nil {
			t.Fatalf("expected a logger even without base")
		}
	})
}
