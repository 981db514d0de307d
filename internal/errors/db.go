package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Regular expressions for parsing PgError.Detail messages.
var (
	// reKeyField extracts field name from detail: "Key (field)=(value) already exists.".
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// reReferencedFrom detects parent deletion: "... is still referenced from table ...".
	reReferencedFrom = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	// reNotPresent detects missing parent: "... is not present in table ...".
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

// MapDBError maps database errors to AppError instances.
// It handles common database error patterns including:
// - pgx.ErrNoRows / sql.ErrNoRows → NotFound
// - Unique constraint violations → Conflict
// - Foreign key violations on delete → HasDependents
// - Foreign key violations on insert/update → ReferenceNotFound
// - Check and NOT NULL violations → Validation
// - Context timeouts/cancellations → Timeout/Canceled
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "request was canceled", Cause: err}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "this value already exists",
			Field:   fieldFromPgError(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.ForeignKeyViolation:
		return mapForeignKeyViolation(pgErr)
	case pgerrcode.CheckViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "this field has an invalid value",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	case pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "this field is required",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	case pgerrcode.InvalidTextRepresentation:
		return &AppError{Code: ErrCodeValidation, Message: "malformed identifier", Cause: pgErr}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "a database error occurred",
			Cause:   pgErr,
		}
	}
}

// mapForeignKeyViolation separates "parent still referenced" (delete of a record
// with children) from "parent not present" (insert or update naming a missing parent).
func mapForeignKeyViolation(pgErr *pgconn.PgError) error {
	if m := reReferencedFrom.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return &AppError{
			Code:    ErrCodeHasDependents,
			Message: "cannot delete because it still has " + mapTableToDomain(m[1]),
			Cause:   pgErr,
		}
	}
	if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return &AppError{
			Code:    ErrCodeReferenceNotFound,
			Message: "referenced " + singular(mapTableToDomain(m[1])) + " does not exist",
			Field:   fieldFromPgError(pgErr),
			Cause:   pgErr,
		}
	}
	return &AppError{
		Code:    ErrCodeHasDependents,
		Message: inferForeignKeyMessage(pgErr.ConstraintName),
		Cause:   pgErr,
	}
}

func fieldFromPgError(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return inferFieldFromConstraint(pgErr.ConstraintName)
}

// inferFieldFromConstraint attempts to infer the field name from a constraint name.
// e.g., "users_email_key" → "email", "jobs_project_id_fkey" → "project_id".
func inferFieldFromConstraint(constraintName string) string {
	if constraintName == "" {
		return ""
	}
	for _, suffix := range []string{"_fkey", "_key", "_unique"} {
		if trimmed, ok := strings.CutSuffix(constraintName, suffix); ok {
			_, field, found := strings.Cut(trimmed, "_")
			if !found {
				return ""
			}
			return field
		}
	}
	return ""
}

func mapTableToDomain(tableName string) string {
	switch strings.ToLower(strings.TrimSpace(tableName)) {
	case "projects":
		return "projects"
	case "jobs":
		return "jobs"
	case "runs":
		return "runs"
	case "results":
		return "results"
	case "users":
		return "users"
	default:
		return strings.ReplaceAll(tableName, "_", " ")
	}
}

func singular(s string) string {
	return strings.TrimSuffix(s, "s")
}

func inferForeignKeyMessage(constraintName string) string {
	name := strings.ToLower(constraintName)
	switch {
	case strings.HasPrefix(name, "jobs_"):
		return "cannot delete because it still has jobs"
	case strings.HasPrefix(name, "runs_"):
		return "cannot delete because it still has runs"
	case strings.HasPrefix(name, "results_"):
		return "cannot delete because it still has results"
	default:
		return "cannot complete operation because this item is in use"
	}
}
