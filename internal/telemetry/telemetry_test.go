package telemetry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), Config{ServiceName: "queued"}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected a shutdown hook")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatalf("global tracer provider must be left untouched")
	}
}

func TestSetupInstallsProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := Setup(context.Background(), Config{
		ServiceName: "queued",
		Endpoint:    "127.0.0.1:4317",
		Insecure:    true,
	}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if otel.GetTracerProvider() == before {
		t.Fatalf("expected a new global tracer provider")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
