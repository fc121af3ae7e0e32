package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phamyourfam/blissbite/internal/repository"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextValue    = "22P02"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// runInTx commits when fn succeeds and rolls back otherwise.
func runInTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", repository.ErrInvalidReference, pgErr.ConstraintName)
		case pgInvalidTextValue:
			// malformed uuid in a lookup
			return repository.ErrNotFound
		}
	}
	return err
}

func execStmt(ctx context.Context, exec pgExecutor, sb squirrel.Sqlizer, what string) error {
	stmt, args, err := sb.ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", what, err)
	}
	if _, err := exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%s: %w", what, mapError(err))
	}
	return nil
}

func execAffecting(ctx context.Context, exec pgExecutor, sb squirrel.Sqlizer, what string) error {
	stmt, args, err := sb.ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", what, err)
	}

	tag, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func count(ctx context.Context, exec pgExecutor, sb squirrel.SelectBuilder) (int, error) {
	stmt, args, err := sb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count sql: %w", err)
	}

	var total int
	if err := exec.QueryRow(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rows: %w", mapError(err))
	}
	return total, nil
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
