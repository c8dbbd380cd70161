package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ticket-queue/internal/persistence"
	"github.com/example/ticket-queue/internal/queue"
)

// QueueStoreContract exercises the behaviour every persistence.QueueStore must
// share. open is called once per subtest and must return an empty store.
func QueueStoreContract(t *testing.T, open func(t *testing.T) persistence.QueueStore) {
	t.Helper()

	const date = "2024-05-01"
	base := ReferenceTime().UTC()

	seedDay := func(t *testing.T, store persistence.QueueStore) {
		t.Helper()
		err := store.WithinTx(context.Background(), func(tx persistence.QueueTx) error {
			return tx.InsertDay(context.Background(), persistence.Day{ServiceDate: date, StartedAt: base})
		})
		if err != nil {
			t.Fatalf("InsertDay failed: %v", err)
		}
	}

	insert := func(t *testing.T, store persistence.QueueStore, index int, status queue.Status) persistence.Entry {
		t.Helper()
		var stored persistence.Entry
		err := store.WithinTx(context.Background(), func(tx persistence.QueueTx) error {
			var err error
			stored, err = tx.InsertEntry(context.Background(), NewEntryFixture(
				WithEntryIndex(index),
				WithEntryStatus(status),
				WithEntryTimestamps(base, base),
			).Persistence())
			return err
		})
		if err != nil {
			t.Fatalf("InsertEntry(%d) failed: %v", index, err)
		}
		return stored
	}

	t.Run("registers a day once", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)

		err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
			return tx.InsertDay(ctx, persistence.Day{ServiceDate: date, StartedAt: base})
		})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		err = store.ReadTx(ctx, func(r persistence.QueueReader) error {
			day, err := r.GetDay(ctx, date)
			if err != nil {
				return err
			}
			if !day.StartedAt.Equal(base) {
				t.Errorf("expected started_at %v, got %v", base, day.StartedAt)
			}
			if _, err := r.GetDay(ctx, "2024-05-02"); !errors.Is(err, persistence.ErrNotFound) {
				t.Errorf("expected ErrNotFound for unknown day, got %v", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ReadTx failed: %v", err)
		}
	})

	t.Run("assigns ids and enforces unique ticket indices", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)

		first := insert(t, store, 1, "waiting")
		second := insert(t, store, 2, "waiting")
		if first.ID == 0 || second.ID == first.ID {
			t.Fatalf("expected distinct ids, got %d and %d", first.ID, second.ID)
		}

		err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
			_, err := tx.InsertEntry(ctx, NewEntryFixture(WithEntryIndex(2), WithEntryTimestamps(base, base)).Persistence())
			return err
		})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		err = store.ReadTx(ctx, func(r persistence.QueueReader) error {
			highest, err := r.MaxTicketIndex(ctx, date)
			if err != nil {
				return err
			}
			count, err := r.CountEntries(ctx, date)
			if err != nil {
				return err
			}
			if highest != 2 || count != 2 {
				t.Errorf("expected max 2 and count 2, got %d and %d", highest, count)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ReadTx failed: %v", err)
		}
	})

	t.Run("rejects entries for unknown days and out-of-range indices", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)

		cases := []persistence.Entry{
			NewEntryFixture(WithEntryDate("2024-06-01"), WithEntryTimestamps(base, base)).Persistence(),
			NewEntryFixture(WithEntryIndex(1000), WithEntryTimestamps(base, base)).Persistence(),
			NewEntryFixture(WithEntryIndex(1), WithEntryStatus("lost"), WithEntryTimestamps(base, base)).Persistence(),
		}
		for _, entry := range cases {
			err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
				_, err := tx.InsertEntry(ctx, entry)
				return err
			})
			if !errors.Is(err, persistence.ErrConstraintViolation) {
				t.Errorf("entry %+v: expected ErrConstraintViolation, got %v", entry, err)
			}
		}
	})

	t.Run("lists entries by index in both directions", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)

		insert(t, store, 3, "waiting")
		insert(t, store, 1, "served")
		insert(t, store, 2, "served")

		err := store.ReadTx(ctx, func(r persistence.QueueReader) error {
			all, err := r.ListEntries(ctx, persistence.EntryFilter{ServiceDate: date})
			if err != nil {
				return err
			}
			if len(all) != 3 || all[0].TicketIndex != 1 || all[2].TicketIndex != 3 {
				t.Errorf("unexpected ascending order: %+v", all)
			}

			served, err := r.ListEntries(ctx, persistence.EntryFilter{
				ServiceDate: date,
				Status:      "served",
				Descending:  true,
				Limit:       1,
			})
			if err != nil {
				return err
			}
			if len(served) != 1 || served[0].TicketIndex != 2 {
				t.Errorf("expected highest served ticket 2, got %+v", served)
			}

			other, err := r.ListEntries(ctx, persistence.EntryFilter{ServiceDate: "2024-05-02"})
			if err != nil {
				return err
			}
			if other == nil || len(other) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", other)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ReadTx failed: %v", err)
		}
	})

	t.Run("allows a single active entry per day", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)

		first := insert(t, store, 1, "active")
		second := insert(t, store, 2, "waiting")

		err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
			return tx.UpdateEntryStatus(ctx, second.ID, "active", base.Add(time.Minute))
		})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for a second active entry, got %v", err)
		}

		err = store.WithinTx(ctx, func(tx persistence.QueueTx) error {
			if err := tx.UpdateEntryStatus(ctx, first.ID, "served", base.Add(time.Minute)); err != nil {
				return err
			}
			return tx.UpdateEntryStatus(ctx, second.ID, "active", base.Add(time.Minute))
		})
		if err != nil {
			t.Fatalf("demote-then-promote failed: %v", err)
		}

		err = store.ReadTx(ctx, func(r persistence.QueueReader) error {
			got, err := r.GetEntry(ctx, second.ID)
			if err != nil {
				return err
			}
			if got.Status != "active" || !got.UpdatedAt.Equal(base.Add(time.Minute)) {
				t.Errorf("unexpected entry after promotion: %+v", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ReadTx failed: %v", err)
		}
	})

	t.Run("rolls back every write when the callback fails", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)
		entry := insert(t, store, 1, "waiting")

		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
			if err := tx.UpdateEntryStatus(ctx, entry.ID, "active", base); err != nil {
				return err
			}
			if _, err := tx.InsertEntry(ctx, NewEntryFixture(WithEntryIndex(2), WithEntryTimestamps(base, base)).Persistence()); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected callback error, got %v", err)
		}

		err = store.ReadTx(ctx, func(r persistence.QueueReader) error {
			got, err := r.GetEntry(ctx, entry.ID)
			if err != nil {
				return err
			}
			count, err := r.CountEntries(ctx, date)
			if err != nil {
				return err
			}
			if got.Status != "waiting" || count != 1 {
				t.Errorf("expected untouched state, got status %q and count %d", got.Status, count)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ReadTx failed: %v", err)
		}
	})

	t.Run("updates customer details", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)
		entry := insert(t, store, 1, "waiting")

		birthday := "1990-01-02"
		entry.Name = "Renamed"
		entry.Phone = "+989350000000"
		entry.Birthday = &birthday
		entry.UpdatedAt = base.Add(time.Hour)

		err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
			if err := tx.UpdateEntryDetails(ctx, entry); err != nil {
				return err
			}
			if err := tx.UpdateEntryDetails(ctx, persistence.Entry{ID: 9999}); !errors.Is(err, persistence.ErrNotFound) {
				t.Errorf("expected ErrNotFound for unknown entry, got %v", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("UpdateEntryDetails failed: %v", err)
		}

		err = store.ReadTx(ctx, func(r persistence.QueueReader) error {
			got, err := r.GetEntry(ctx, entry.ID)
			if err != nil {
				return err
			}
			if got.Name != "Renamed" || got.Phone != entry.Phone || got.Birthday == nil || *got.Birthday != birthday {
				t.Errorf("unexpected entry after update: %+v", got)
			}
			if got.Status != "waiting" {
				t.Errorf("details update must not touch status, got %q", got.Status)
			}
			if _, err := r.GetEntry(ctx, 9999); !errors.Is(err, persistence.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ReadTx failed: %v", err)
		}
	})

	t.Run("upserts snapshots per window", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)

		window := base.Truncate(30 * time.Minute)
		writes := []persistence.Snapshot{
			{ServiceDate: date, WindowStart: window, Pending: 1, Waiting: 1, CapturedAt: base},
			{ServiceDate: date, WindowStart: window, Pending: 2, Waiting: 1, Served: 1, CapturedAt: base.Add(5 * time.Minute)},
			{ServiceDate: date, WindowStart: window.Add(30 * time.Minute), Pending: 1, Served: 2, CapturedAt: base.Add(40 * time.Minute)},
		}
		for _, snapshot := range writes {
			err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
				return tx.UpsertSnapshot(ctx, snapshot)
			})
			if err != nil {
				t.Fatalf("UpsertSnapshot failed: %v", err)
			}
		}

		err := store.ReadTx(ctx, func(r persistence.QueueReader) error {
			snapshots, err := r.ListSnapshots(ctx, date)
			if err != nil {
				return err
			}
			if len(snapshots) != 2 {
				t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
			}
			if snapshots[0].Pending != 2 || snapshots[0].Served != 1 || !snapshots[0].CapturedAt.Equal(base.Add(5*time.Minute)) {
				t.Errorf("expected overwritten first window, got %+v", snapshots[0])
			}
			if !snapshots[1].WindowStart.Equal(window.Add(30 * time.Minute)) {
				t.Errorf("unexpected second window %v", snapshots[1].WindowStart)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ReadTx failed: %v", err)
		}
	})

	t.Run("deletes only empty days", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		seedDay(t, store)

		err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
			if err := tx.UpsertSnapshot(ctx, persistence.Snapshot{ServiceDate: date, WindowStart: base, CapturedAt: base}); err != nil {
				return err
			}
			return tx.DeleteDay(ctx, date)
		})
		if err != nil {
			t.Fatalf("DeleteDay failed: %v", err)
		}

		err = store.ReadTx(ctx, func(r persistence.QueueReader) error {
			snapshots, err := r.ListSnapshots(ctx, date)
			if err != nil {
				return err
			}
			if len(snapshots) != 0 {
				t.Errorf("expected snapshots removed with the day, got %d", len(snapshots))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ReadTx failed: %v", err)
		}

		seedDay(t, store)
		insert(t, store, 1, "waiting")
		err = store.WithinTx(ctx, func(tx persistence.QueueTx) error {
			return tx.DeleteDay(ctx, date)
		})
		if !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation deleting a day with entries, got %v", err)
		}
	})
}
