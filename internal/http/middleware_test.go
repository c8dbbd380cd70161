package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("assigns a request id and scoped logger", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))

		var seenID string
		handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := RequestIDFromContext(r.Context())
			if !ok {
				t.Errorf("expected request id in context")
			}
			seenID = id
			if LoggerFromContext(r.Context()) == nil {
				t.Errorf("expected request logger in context")
			}
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/ticker", nil))

		header := rec.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(header); err != nil {
			t.Fatalf("expected a UUID request id, got %q", header)
		}
		if header != seenID {
			t.Fatalf("header %q and context %q differ", header, seenID)
		}
		out := buf.String()
		if !strings.Contains(out, "request completed") || !strings.Contains(out, "status=418") {
			t.Fatalf("unexpected log output %q", out)
		}
		if !strings.Contains(out, "request_id="+header) {
			t.Fatalf("log lines must carry the request id: %q", out)
		}
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		t.Parallel()

		incoming := uuid.NewString()
		handler := RequestLogger(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, incoming)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != incoming {
			t.Fatalf("expected %q, got %q", incoming, got)
		}
	})

	t.Run("replaces a malformed incoming id", func(t *testing.T) {
		t.Parallel()

		handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "not-a-uuid\nforged")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
			t.Fatalf("expected a fresh UUID, got %q", rec.Header().Get(RequestIDHeader))
		}
	})
}

func TestRecover(t *testing.T) {
	t.Parallel()

	handler := Recover(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), codeInternal) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRouterAppliesMiddlewareInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := NewRouter(RouterConfig{Middleware: []func(http.Handler) http.Handler{mark("outer"), nil, mark("inner")}})
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/queue/health", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Fatalf("unexpected middleware order %v", order)
	}
}
