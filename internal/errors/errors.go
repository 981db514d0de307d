package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeHasDependents indicates a delete was refused because child records still reference the target.
	ErrCodeHasDependents ErrorCode = "has_dependents"
	// ErrCodeReferenceNotFound indicates a write named a parent record that does not exist.
	ErrCodeReferenceNotFound ErrorCode = "reference_not_found"
	// ErrCodeMalformedConfig indicates a job configuration document failed to parse.
	ErrCodeMalformedConfig ErrorCode = "malformed_config"
	// ErrCodeInvalidTransition indicates a run status change not allowed from its current state.
	ErrCodeInvalidTransition ErrorCode = "invalid_transition"
	// ErrCodeUnauthorized indicates missing or invalid credentials.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeTokenExpired indicates a well-formed credential that is past its expiry.
	ErrCodeTokenExpired ErrorCode = "token_expired"
	// ErrCodeInvalidCredentials indicates an email/password pair did not match.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	// ErrCodeInvalidRefreshToken indicates a refresh token was invalid, expired or revoked.
	ErrCodeInvalidRefreshToken ErrorCode = "invalid_refresh_token"
	// ErrCodeForbidden indicates the principal may not act on the resource.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeLocked indicates the account is temporarily locked.
	ErrCodeLocked ErrorCode = "locked"
	// ErrCodeUnavailable indicates a dependency is not reachable.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newErr(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError { return newErr(ErrCodeNotFound, message) }

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newErr(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError { return newErr(ErrCodeConflict, message) }

// Validation creates a new Validation error.
func Validation(message string) *AppError { return newErr(ErrCodeValidation, message) }

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return newErr(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// HasDependents creates an error for a delete blocked by child records.
func HasDependents(message string) *AppError { return newErr(ErrCodeHasDependents, message) }

// ReferenceNotFound creates an error for a write naming a missing parent.
func ReferenceNotFound(field, message string) *AppError {
	return &AppError{Code: ErrCodeReferenceNotFound, Message: message, Field: field}
}

// MalformedConfig wraps a configuration parse failure.
func MalformedConfig(field string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedConfig,
		Message: "invalid YAML configuration",
		Field:   field,
		Cause:   cause,
	}
}

// InvalidTransition creates a run state machine rejection.
func InvalidTransition(message string) *AppError {
	return newErr(ErrCodeInvalidTransition, message)
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError { return newErr(ErrCodeUnauthorized, message) }

// TokenExpired creates a new TokenExpired error.
func TokenExpired(message string) *AppError { return newErr(ErrCodeTokenExpired, message) }

// InvalidCredentials creates a new InvalidCredentials error.
func InvalidCredentials() *AppError {
	return newErr(ErrCodeInvalidCredentials, "invalid email or password")
}

// InvalidRefreshToken creates a new InvalidRefreshToken error.
func InvalidRefreshToken(cause error) *AppError {
	return &AppError{Code: ErrCodeInvalidRefreshToken, Message: "invalid refresh token", Cause: cause}
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError { return newErr(ErrCodeForbidden, message) }

// Locked creates a new Locked error.
func Locked(message string) *AppError { return newErr(ErrCodeLocked, message) }

// Unavailable wraps a dependency failure.
func Unavailable(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeUnavailable, Message: message, Cause: cause}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError { return newErr(ErrCodeInternal, message) }

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// IsAppError reports whether err carries the given code anywhere in its chain.
func IsAppError(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return IsAppError(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return IsAppError(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return IsAppError(err, ErrCodeValidation) }

// IsHasDependents checks if an error is a HasDependents error.
func IsHasDependents(err error) bool { return IsAppError(err, ErrCodeHasDependents) }

// IsReferenceNotFound checks if an error is a ReferenceNotFound error.
func IsReferenceNotFound(err error) bool { return IsAppError(err, ErrCodeReferenceNotFound) }

// IsMalformedConfig checks if an error is a MalformedConfig error.
func IsMalformedConfig(err error) bool { return IsAppError(err, ErrCodeMalformedConfig) }

// IsInvalidTransition checks if an error is an InvalidTransition error.
func IsInvalidTransition(err error) bool { return IsAppError(err, ErrCodeInvalidTransition) }

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return IsAppError(err, ErrCodeUnauthorized) }

// IsTokenExpired checks if an error is a TokenExpired error.
func IsTokenExpired(err error) bool { return IsAppError(err, ErrCodeTokenExpired) }

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool { return IsAppError(err, ErrCodeForbidden) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// PublicMessage returns the AppError message without its cause so internal detail
// does not leak to callers.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
