package repository

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medcenter/clinic-api/apperrors"
)

// Store is the Postgres backed persistence layer. Fixed statements are plain
// SQL; listings with optional filters are built with goqu.
type Store struct {
	pool *pgxpool.Pool
	qb   goqu.DialectWrapper
}

// New creates a Store over pool
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, qb: goqu.Dialect("postgres")}
}

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func (s *Store) query(ctx context.Context, b sqlBuilder) (pgx.Rows, error) {
	sql, args, err := b.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("query failed", err)
	}
	return rows, nil
}

// inTx runs fn in a transaction, committing when fn returns nil
func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFoundError(what + " not found")
	}
	return apperrors.NewInternalError("failed to load "+what, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func execAffecting(ctx context.Context, s *Store, what, sql string, args ...interface{}) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update "+what, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(what + " not found")
	}
	return nil
}
