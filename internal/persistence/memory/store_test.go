package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/ticket-queue/internal/persistence"
	"github.com/example/ticket-queue/internal/persistence/memory"
	"github.com/example/ticket-queue/internal/testfixtures"
)

func TestStoreContract(t *testing.T) {
	testfixtures.QueueStoreContract(t, func(t *testing.T) persistence.QueueStore {
		return memory.New()
	})
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	birthday := "1990-01-02"
	entry := testfixtures.NewEntryFixture(testfixtures.WithEntryBirthday("1990-01-02")).Persistence()
	var stored persistence.Entry
	err := store.WithinTx(ctx, func(tx persistence.QueueTx) error {
		if err := tx.InsertDay(ctx, persistence.Day{ServiceDate: entry.ServiceDate, StartedAt: testfixtures.ReferenceTime()}); err != nil {
			return err
		}
		var err error
		stored, err = tx.InsertEntry(ctx, entry)
		return err
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	*stored.Birthday = "2000-12-31"
	stored.Name = "Mutated"

	err = store.ReadTx(ctx, func(r persistence.QueueReader) error {
		got, err := r.GetEntry(ctx, stored.ID)
		if err != nil {
			return err
		}
		if got.Name == "Mutated" || got.Birthday == nil || *got.Birthday != birthday {
			t.Errorf("store state leaked through returned entry: %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ReadTx failed: %v", err)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := memory.New()
	called := false
	err := store.WithinTx(ctx, func(persistence.QueueTx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected context.Canceled without running the callback, got %v (called=%v)", err, called)
	}
}
