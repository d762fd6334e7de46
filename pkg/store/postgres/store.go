// Package postgres implements the store interfaces on PostgreSQL.
// Every WithinTx call runs as a serializable transaction; serialization
// aborts surface as store.ErrConflict so callers can retry the whole unit.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bethesda-mission/shelterline/pkg/store"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// Store runs transactional units of work against a PostgreSQL database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open connection pool. The pool is owned by the
// database client; Close here is a no-op.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithinTx implements store.Store on a serializable transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, &pgTx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return mapPgError(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return mapPgError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Close implements store.Store. The pool belongs to the database client.
func (s *Store) Close() error { return nil }

// mapPgError translates PostgreSQL error codes into the store sentinels.
// Serialization aborts and deadlocks become ErrConflict so the allocation
// retry loop treats a lost database race exactly like a lost CAS.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%s: %w", pgErr.Message, store.ErrConflict)
		case pgUniqueViolation:
			if pgErr.ConstraintName == "reservations_confirmation_code_key" {
				return store.ErrDuplicateCode
			}
			return fmt.Errorf("%s: %w", pgErr.Message, store.ErrConflict)
		}
	}
	return err
}
