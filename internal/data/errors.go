package data

import (
	"github.com/google/uuid"

	apperrors "github.com/target/harvester-api/internal/errors"
)

// mapRepoErr translates a driver error into an AppError, naming the entity in
// not-found messages so the Postgres and in-memory stores read the same.
func mapRepoErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	mapped := apperrors.MapDBError(err)
	if apperrors.IsNotFound(mapped) {
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, entity+" not found")
	}
	return mapped
}

// validID reports whether id can name a row. Anything that is not a UUID cannot,
// so lookups short-circuit to NotFound instead of surfacing a cast error.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func notFound(entity string) error {
	return apperrors.NotFound(entity + " not found")
}

func missingParent(field, entity string) error {
	return apperrors.ReferenceNotFound(field, "referenced "+entity+" does not exist")
}

func nilRequest(entity string) error {
	return apperrors.Validation("create " + entity + " request is required")
}
