package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Transact runs fn inside one transaction. Busy errors retry the whole
// transaction, so fn must not have side effects outside tx.
func Transact(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	return RetryWithBackoff(func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin block store transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("commit block store transaction: %w", err)
		}
		return nil
	})
}
