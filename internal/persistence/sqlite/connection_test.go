package sqlite

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/example/ticket-queue/internal/persistence"
)

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
	if err := mapError(sql.ErrNoRows); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	plain := errors.New("disk I/O error")
	if err := mapError(plain); err != plain {
		t.Fatalf("unrelated errors must pass through, got %v", err)
	}
}
