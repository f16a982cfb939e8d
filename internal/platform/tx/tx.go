package tx

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run executes fn inside one transaction. The transaction commits only when fn
// returns nil, so a failed stage leaves nothing behind.
func Run(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
