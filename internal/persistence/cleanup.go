package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// clearableTables hold learned state only; the schema version survives a clear.
var clearableTables = []string{"operators"}

// ClearDatabase forgets every learned operator name.
func ClearDatabase(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("database is not initialized")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range clearableTables {
		//goland:noinspection SqlWithoutWhere
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+`;`); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear tx: %w", err)
	}

	return nil
}
