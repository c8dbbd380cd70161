package migration

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count == 1
}

func TestExecutor_InitializeVersionTable(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)
	ctx := context.Background()

	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}
	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable should be idempotent: %v", err)
	}
	if !tableExists(t, db, "schema_migrations") {
		t.Fatal("schema_migrations table missing")
	}
}

func TestExecutor_Apply(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)
	ctx := context.Background()

	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}

	migration := Migration{
		Version:  "001",
		SQL:      "CREATE TABLE a (id TEXT);\nCREATE TABLE b (id TEXT);",
		FilePath: "migrations/001_tables.sql",
		Checksum: checksum("x"),
	}
	if err := executor.Apply(ctx, migration); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !tableExists(t, db, "a") || !tableExists(t, db, "b") {
		t.Fatal("expected both tables to exist")
	}

	applied, err := executor.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied failed: %v", err)
	}
	if len(applied) != 1 || applied[0].Version != "001" || applied[0].Checksum != migration.Checksum {
		t.Fatalf("unexpected applied migrations: %#v", applied)
	}
}

func TestExecutor_ApplyRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)
	ctx := context.Background()

	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}

	migration := Migration{
		Version: "001",
		SQL:     "CREATE TABLE a (id TEXT);\nTHIS IS NOT SQL;",
	}
	if err := executor.Apply(ctx, migration); err == nil {
		t.Fatal("expected Apply to fail")
	}
	if tableExists(t, db, "a") {
		t.Fatal("table from failed migration should have been rolled back")
	}

	applied, err := executor.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied failed: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected no applied migrations, got %#v", applied)
	}
}
