// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (for example "001_queue_days.sql") and are read from an fs.FS, usually an
// embedded directory. Applied versions are tracked in a schema_migrations
// table together with the checksum of the file that was executed, so a file
// edited after it shipped is reported instead of silently skipped.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
