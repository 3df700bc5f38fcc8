package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use; pgxmock satisfies it too.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// translate maps driver errors onto the shared sentinels so services never see pgx types.
func translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", resource, apperrors.ErrNotFound)
	}
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%s already exists: %w", resource, apperrors.ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("%s is referenced by other records: %w", resource, apperrors.ErrConflict)
	case pgInvalidTextRepr:
		// malformed ids cannot match any row
		return fmt.Errorf("%s: %w", resource, apperrors.ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", resource, apperrors.ErrUpstreamRequestFailed, err)
}

func likePattern(term string) string {
	return "%" + term + "%"
}
