package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("writes json by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New("info", "", &buf)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info("ticket issued", "ticket_number", "001")

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("expected json output, got %q: %v", buf.String(), err)
		}
		if record["msg"] != "ticket issued" || record["ticket_number"] != "001" {
			t.Fatalf("unexpected record %v", record)
		}
	})

	t.Run("honours the level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New("warn", FormatText, &buf)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info("hidden")
		logger.Warn("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
			t.Fatalf("unexpected output %q", out)
		}
	})

	t.Run("rejects unknown settings", func(t *testing.T) {
		if _, err := New("loud", FormatJSON, nil); err == nil {
			t.Fatalf("expected level error")
		}
		if _, err := New("info", "xml", nil); err == nil {
			t.Fatalf("expected format error")
		}
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestContextWithLogger(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected logger round trip")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger on bare context")
	}
	if got := ContextWithLogger(context.Background(), nil); FromContext(got) != nil {
		t.Fatalf("nil logger must not be stored")
	}
}
