package migration

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys["migrations/"+name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func newTestManager(t *testing.T, files map[string]string) (*Manager, *Executor) {
	t.Helper()
	executor := NewExecutor(setupTestDB(t))
	return NewManager(NewScanner(migrationFS(files), "migrations"), executor, nil), executor
}

func TestManager_Run(t *testing.T) {
	ctx := context.Background()
	manager, executor := newTestManager(t, map[string]string{
		"001_days.sql":    "CREATE TABLE queue_days (service_date TEXT PRIMARY KEY);",
		"002_entries.sql": "CREATE TABLE queue_entries (id INTEGER PRIMARY KEY, service_date TEXT REFERENCES queue_days(service_date));",
	})

	if err := manager.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := manager.Run(ctx); err != nil {
		t.Fatalf("second Run should be a no-op: %v", err)
	}

	applied, err := executor.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied failed: %v", err)
	}
	if len(applied) != 2 || applied[1].Version != "002" {
		t.Fatalf("unexpected applied migrations: %#v", applied)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.CurrentVersion != "002" || len(status.Pending) != 0 {
		t.Fatalf("unexpected status: %#v", status)
	}
}

func TestManager_RunStopsAtFailure(t *testing.T) {
	ctx := context.Background()
	manager, executor := newTestManager(t, map[string]string{
		"001_days.sql":   "CREATE TABLE queue_days (service_date TEXT PRIMARY KEY);",
		"002_broken.sql": "CREATE TABLE broken (;",
		"003_later.sql":  "CREATE TABLE later (id TEXT);",
	})

	err := manager.Run(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	applied, err := executor.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied failed: %v", err)
	}
	if len(applied) != 1 || applied[0].Version != "001" {
		t.Fatalf("expected only 001 applied, got %#v", applied)
	}
}

func TestManager_DetectsGaps(t *testing.T) {
	manager, _ := newTestManager(t, map[string]string{
		"001_days.sql":  "CREATE TABLE a (id TEXT);",
		"003_later.sql": "CREATE TABLE b (id TEXT);",
	})

	if err := manager.Run(context.Background()); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestManager_DetectsEditedMigration(t *testing.T) {
	ctx := context.Background()
	executor := NewExecutor(setupTestDB(t))

	original := NewManager(NewScanner(migrationFS(map[string]string{
		"001_days.sql": "CREATE TABLE a (id TEXT);",
	}), "migrations"), executor, nil)
	if err := original.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	edited := NewManager(NewScanner(migrationFS(map[string]string{
		"001_days.sql": "CREATE TABLE a (id TEXT, name TEXT);",
	}), "migrations"), executor, nil)
	if err := edited.Run(ctx); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestManager_DetectsMissingAppliedFile(t *testing.T) {
	ctx := context.Background()
	executor := NewExecutor(setupTestDB(t))

	first := NewManager(NewScanner(migrationFS(map[string]string{
		"001_days.sql":    "CREATE TABLE a (id TEXT);",
		"002_entries.sql": "CREATE TABLE b (id TEXT);",
	}), "migrations"), executor, nil)
	if err := first.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	trimmed := NewManager(NewScanner(migrationFS(map[string]string{
		"001_days.sql": "CREATE TABLE a (id TEXT);",
	}), "migrations"), executor, nil)
	if _, err := trimmed.Status(ctx); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}
