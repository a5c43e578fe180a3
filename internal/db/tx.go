package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// withTx runs fn in a transaction, the transaction is committed if fn
// returns nil and rolled back otherwise.
func (s Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = fn(tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}
