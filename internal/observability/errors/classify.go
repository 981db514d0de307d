// Package errors derives low-cardinality labels from errors for metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/target/harvester-api/internal/errors"
)

// Classify returns a metric label for err, checked in order:
//   - application errors: their code ("not_found", "invalid_transition")
//   - context expiry: "timeout" or "canceled"
//   - Postgres errors: "pg_" plus the SQLSTATE
//   - anything else: the snake_cased type of the innermost wrapped error
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}
	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) && pgErr.Code != "" {
		return "pg_" + strings.ToLower(pgErr.Code)
	}
	return typeLabel(innermost(err))
}

func innermost(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func typeLabel(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
}
