// Package db bootstraps the PostgreSQL pool backing the record store.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

const (
	// invalidTextRepresentation is raised when an id is not a well-formed uuid.
	invalidTextRepresentation = "22P02"
	// numericValueOutOfRange is raised when a quantity or amount overflows its column.
	numericValueOutOfRange = "22003"
)

// New creates a pool and verifies connectivity.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", errors.Join(shared.ErrConfiguration, err))
	}
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}

// Classify maps driver errors onto the shared error taxonomy. A missing row
// or an unparseable id both mean the id does not resolve.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, shared.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case invalidTextRepresentation:
			return fmt.Errorf("%s: %w", op, shared.ErrNotFound)
		case numericValueOutOfRange:
			return fmt.Errorf("%s: value out of range: %w", op, shared.ErrValidation)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, shared.ErrDependency, err)
}
