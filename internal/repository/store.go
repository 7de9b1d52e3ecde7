package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Store is the persistence surface used by services: every query plus the
// ability to run a group of queries in one transaction.
type Store interface {
	Querier

	// ExecTx runs fn inside a transaction. fn's Querier is bound to the
	// transaction; the transaction commits when fn returns nil and rolls
	// back otherwise.
	ExecTx(ctx context.Context, fn func(Querier) error) error
}

// SQLStore is the PostgreSQL-backed Store.
type SQLStore struct {
	*Queries
	db *sql.DB
}

// NewStore creates a Store over an open database handle.
func NewStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		Queries: New(db),
		db:      db,
	}
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// ExecTx implements Store.
func (s *SQLStore) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(s.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ Store = (*SQLStore)(nil)
