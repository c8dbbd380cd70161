package persistence

import (
	"context"
	"time"
)

// EntryFilter narrows entry queries to one service date.
type EntryFilter struct {
	ServiceDate string
	// Status restricts results when non-empty.
	Status string
	// Descending orders by ticket index from highest to lowest.
	Descending bool
	// Limit caps the number of rows when positive.
	Limit int
}

// QueueReader exposes the read side of the queue store.
type QueueReader interface {
	GetDay(ctx context.Context, serviceDate string) (Day, error)
	CountEntries(ctx context.Context, serviceDate string) (int, error)
	MaxTicketIndex(ctx context.Context, serviceDate string) (int, error)
	GetEntry(ctx context.Context, id int64) (Entry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)
	ListSnapshots(ctx context.Context, serviceDate string) ([]Snapshot, error)
}

// QueueTx is a unit of work. Writes become visible only when the enclosing
// WithinTx callback returns nil.
type QueueTx interface {
	QueueReader

	InsertDay(ctx context.Context, day Day) error
	// DeleteDay removes the day and its snapshots. Entries must already be gone.
	DeleteDay(ctx context.Context, serviceDate string) error

	// InsertEntry stores entry and returns it with its assigned ID.
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	// UpdateEntryDetails rewrites name, phone, birthday and updated_at.
	UpdateEntryDetails(ctx context.Context, entry Entry) error
	UpdateEntryStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error

	// UpsertSnapshot inserts or overwrites the row keyed by (service date, window start).
	UpsertSnapshot(ctx context.Context, snapshot Snapshot) error
}

// QueueStore owns the storage handle and hands out transactions.
type QueueStore interface {
	WithinTx(ctx context.Context, fn func(tx QueueTx) error) error
	ReadTx(ctx context.Context, fn func(r QueueReader) error) error
	Ping(ctx context.Context) error
	Close() error
}
