package persistence

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register sqlite driver
)

// connectionPragmas run once after open. busy_timeout covers the window where
// the writer queue and a ClearDatabase call overlap.
var connectionPragmas = []struct {
	name string
	stmt string
}{
	{name: "enable foreign keys", stmt: `PRAGMA foreign_keys = ON;`},
	{name: "set wal mode", stmt: `PRAGMA journal_mode = WAL;`},
	{name: "set busy timeout", stmt: `PRAGMA busy_timeout = 5000;`},
}

// Open opens the operator database at path and brings its schema up to date.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)

	if err := prepare(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

func prepare(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, pragma := range connectionPragmas {
		if _, err := db.ExecContext(ctx, pragma.stmt); err != nil {
			return fmt.Errorf("%s: %w", pragma.name, err)
		}
	}

	return migrate(ctx, db)
}
