// Package store wraps db.Querier with transaction support for the lead
// ledger. Single-query reads go straight to db.Querier via Q().
//
// Dependency rule: store imports db only.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nyashahama/management-diagnostic/internal/db"
)

// Store holds a *sql.DB for starting transactions and a db.Querier for
// everything else.
type Store struct {
	pool *sql.DB
	q    db.Querier
}

// New creates a Store from an open, verified connection pool.
func New(pool *sql.DB, q db.Querier) *Store {
	return &Store{pool: pool, q: q}
}

// Q exposes the underlying Querier for single-query reads.
//
//	leads, err := s.Q().ListLeadsByEmail(ctx, addr)
func (s *Store) Q() db.Querier {
	return s.q
}

type txQuerier func(ctx context.Context, q db.Querier) error

// withTx runs fn in a serializable transaction and commits on success. Any
// error or panic from fn rolls back.
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	tx, err := s.pool.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, db.New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}
