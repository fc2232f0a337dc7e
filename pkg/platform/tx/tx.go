// Package tx wraps the begin/commit/rollback ceremony around a unit of work.
package tx

import (
	"context"
	"database/sql"
	"fmt"
)

// Run executes fn inside a transaction, rolling back when fn returns an
// error and committing otherwise. The fn error is returned unwrapped so
// callers can match sentinel errors through it.
func Run(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	dbTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(dbTx); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
