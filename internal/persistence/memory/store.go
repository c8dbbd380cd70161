// Package memory provides an in-process implementation of the queue store.
// Transactions work on a copy of the state that replaces the original only
// when the callback succeeds, so a failed operation leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/ticket-queue/internal/persistence"
)

const maxTicketIndex = 999

var validStatuses = map[string]bool{"waiting": true, "active": true, "served": true}

type snapshotKey struct {
	serviceDate string
	windowStart int64
}

type state struct {
	days      map[string]persistence.Day
	entries   map[int64]persistence.Entry
	snapshots map[snapshotKey]persistence.Snapshot
	nextID    int64
}

func newState() *state {
	return &state{
		days:      make(map[string]persistence.Day),
		entries:   make(map[int64]persistence.Entry),
		snapshots: make(map[snapshotKey]persistence.Snapshot),
		nextID:    1,
	}
}

func (s *state) clone() *state {
	out := &state{
		days:      make(map[string]persistence.Day, len(s.days)),
		entries:   make(map[int64]persistence.Entry, len(s.entries)),
		snapshots: make(map[snapshotKey]persistence.Snapshot, len(s.snapshots)),
		nextID:    s.nextID,
	}
	for k, v := range s.days {
		out.days[k] = v
	}
	for k, v := range s.entries {
		out.entries[k] = cloneEntry(v)
	}
	for k, v := range s.snapshots {
		out.snapshots[k] = v
	}
	return out
}

// Store is a persistence.QueueStore held in memory.
type Store struct {
	mu    sync.RWMutex
	state *state
}

var _ persistence.QueueStore = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

// WithinTx runs fn against a private copy and publishes it when fn returns nil.
// Writers are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(tx persistence.QueueTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&tx{state: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// ReadTx runs fn against the committed state.
func (s *Store) ReadTx(ctx context.Context, fn func(r persistence.QueueReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&tx{state: s.state})
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

type tx struct {
	state *state
}

var _ persistence.QueueTx = (*tx)(nil)

func (t *tx) GetDay(_ context.Context, serviceDate string) (persistence.Day, error) {
	day, ok := t.state.days[serviceDate]
	if !ok {
		return persistence.Day{}, persistence.ErrNotFound
	}
	return day, nil
}

func (t *tx) InsertDay(_ context.Context, day persistence.Day) error {
	if _, ok := t.state.days[day.ServiceDate]; ok {
		return fmt.Errorf("%w: day %s already registered", persistence.ErrDuplicate, day.ServiceDate)
	}
	t.state.days[day.ServiceDate] = day
	return nil
}

func (t *tx) DeleteDay(_ context.Context, serviceDate string) error {
	if _, ok := t.state.days[serviceDate]; !ok {
		return persistence.ErrNotFound
	}
	for _, entry := range t.state.entries {
		if entry.ServiceDate == serviceDate {
			return fmt.Errorf("%w: day %s still has entries", persistence.ErrConstraintViolation, serviceDate)
		}
	}
	delete(t.state.days, serviceDate)
	for key := range t.state.snapshots {
		if key.serviceDate == serviceDate {
			delete(t.state.snapshots, key)
		}
	}
	return nil
}

func (t *tx) CountEntries(_ context.Context, serviceDate string) (int, error) {
	count := 0
	for _, entry := range t.state.entries {
		if entry.ServiceDate == serviceDate {
			count++
		}
	}
	return count, nil
}

func (t *tx) MaxTicketIndex(_ context.Context, serviceDate string) (int, error) {
	highest := 0
	for _, entry := range t.state.entries {
		if entry.ServiceDate == serviceDate && entry.TicketIndex > highest {
			highest = entry.TicketIndex
		}
	}
	return highest, nil
}

func (t *tx) InsertEntry(_ context.Context, entry persistence.Entry) (persistence.Entry, error) {
	if _, ok := t.state.days[entry.ServiceDate]; !ok {
		return persistence.Entry{}, fmt.Errorf("%w: day %s is not registered", persistence.ErrConstraintViolation, entry.ServiceDate)
	}
	if entry.TicketIndex < 1 || entry.TicketIndex > maxTicketIndex {
		return persistence.Entry{}, fmt.Errorf("%w: ticket index %d out of range", persistence.ErrConstraintViolation, entry.TicketIndex)
	}
	if !validStatuses[entry.Status] {
		return persistence.Entry{}, fmt.Errorf("%w: unknown status %q", persistence.ErrConstraintViolation, entry.Status)
	}
	for _, existing := range t.state.entries {
		if existing.ServiceDate == entry.ServiceDate && existing.TicketIndex == entry.TicketIndex {
			return persistence.Entry{}, fmt.Errorf("%w: ticket %d already issued for %s", persistence.ErrDuplicate, entry.TicketIndex, entry.ServiceDate)
		}
	}
	if entry.Status == "active" {
		if err := t.ensureNoOtherActive(entry.ServiceDate, 0); err != nil {
			return persistence.Entry{}, err
		}
	}

	entry.ID = t.state.nextID
	t.state.nextID++
	t.state.entries[entry.ID] = cloneEntry(entry)
	return cloneEntry(entry), nil
}

func (t *tx) GetEntry(_ context.Context, id int64) (persistence.Entry, error) {
	entry, ok := t.state.entries[id]
	if !ok {
		return persistence.Entry{}, persistence.ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (t *tx) UpdateEntryDetails(_ context.Context, entry persistence.Entry) error {
	existing, ok := t.state.entries[entry.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	existing.Name = entry.Name
	existing.Phone = entry.Phone
	existing.Birthday = cloneString(entry.Birthday)
	existing.UpdatedAt = entry.UpdatedAt
	t.state.entries[entry.ID] = existing
	return nil
}

func (t *tx) UpdateEntryStatus(_ context.Context, id int64, status string, updatedAt time.Time) error {
	existing, ok := t.state.entries[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if !validStatuses[status] {
		return fmt.Errorf("%w: unknown status %q", persistence.ErrConstraintViolation, status)
	}
	if status == "active" {
		if err := t.ensureNoOtherActive(existing.ServiceDate, id); err != nil {
			return err
		}
	}
	existing.Status = status
	existing.UpdatedAt = updatedAt
	t.state.entries[id] = existing
	return nil
}

func (t *tx) ensureNoOtherActive(serviceDate string, except int64) error {
	for id, entry := range t.state.entries {
		if id != except && entry.ServiceDate == serviceDate && entry.Status == "active" {
			return fmt.Errorf("%w: %s already has an active entry", persistence.ErrDuplicate, serviceDate)
		}
	}
	return nil
}

func (t *tx) ListEntries(_ context.Context, filter persistence.EntryFilter) ([]persistence.Entry, error) {
	entries := make([]persistence.Entry, 0)
	for _, entry := range t.state.entries {
		if entry.ServiceDate != filter.ServiceDate {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		entries = append(entries, cloneEntry(entry))
	}

	sort.Slice(entries, func(i, j int) bool {
		if filter.Descending {
			return entries[i].TicketIndex > entries[j].TicketIndex
		}
		return entries[i].TicketIndex < entries[j].TicketIndex
	})

	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func (t *tx) UpsertSnapshot(_ context.Context, snapshot persistence.Snapshot) error {
	if _, ok := t.state.days[snapshot.ServiceDate]; !ok {
		return fmt.Errorf("%w: day %s is not registered", persistence.ErrConstraintViolation, snapshot.ServiceDate)
	}
	if snapshot.Pending < 0 || snapshot.Waiting < 0 || snapshot.Served < 0 {
		return fmt.Errorf("%w: negative snapshot count", persistence.ErrConstraintViolation)
	}
	key := snapshotKey{serviceDate: snapshot.ServiceDate, windowStart: snapshot.WindowStart.UnixNano()}
	t.state.snapshots[key] = snapshot
	return nil
}

func (t *tx) ListSnapshots(_ context.Context, serviceDate string) ([]persistence.Snapshot, error) {
	snapshots := make([]persistence.Snapshot, 0)
	for key, snapshot := range t.state.snapshots {
		if key.serviceDate == serviceDate {
			snapshots = append(snapshots, snapshot)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].WindowStart.Before(snapshots[j].WindowStart)
	})
	return snapshots, nil
}

func cloneEntry(entry persistence.Entry) persistence.Entry {
	entry.Birthday = cloneString(entry.Birthday)
	return entry
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
