// Package database provides the SQLite store of the camera bridge.
//
// Open configures WAL mode, a busy timeout and a single-connection pool.
// Migrate applies the SQL files embedded by the migrations package, each in
// its own transaction, recording versions in schema_migrations.
//
// Migrations are additive: new columns are nullable or carry defaults, and
// every .up.sql has a matching .down.sql.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
