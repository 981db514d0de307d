package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

// Code is an API error code. The set is closed; see codeTable.
type Code string

const (
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeTokenExpired        Code = "TOKEN_EXPIRED"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeInvalidRefreshToken Code = "INVALID_REFRESH_TOKEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeValidationError     Code = "VALIDATION_ERROR"
	CodeRateLimitExceeded   Code = "RATE_LIMIT_EXCEEDED"
	CodeThrottled           Code = "THROTTLED"
	CodeUserLocked          Code = "USER_LOCKED"
	CodeInternalError       Code = "INTERNAL_ERROR"
	CodeServiceUnavailable  Code = "SERVICE_UNAVAILABLE"
)

type codeInfo struct {
	status  int
	message string
}

var codeTable = map[Code]codeInfo{ //nolint:gochecknoglobals // read-only code registry
	CodeUnauthorized:        {http.StatusUnauthorized, "Authentication required"},
	CodeForbidden:           {http.StatusForbidden, "Permission denied"},
	CodeTokenExpired:        {http.StatusUnauthorized, "Authentication token has expired"},
	CodeInvalidCredentials:  {http.StatusUnauthorized, "Invalid username or password"},
	CodeInvalidRefreshToken: {http.StatusUnauthorized, "Invalid refresh token"},
	CodeNotFound:            {http.StatusNotFound, "Resource not found"},
	CodeAlreadyExists:       {http.StatusConflict, "Resource already exists"},
	CodeInvalidInput:        {http.StatusBadRequest, "Invalid input provided"},
	CodeValidationError:     {http.StatusBadRequest, "Validation failed"},
	CodeRateLimitExceeded:   {http.StatusTooManyRequests, "Too many requests"},
	CodeThrottled:           {http.StatusTooManyRequests, "You are being throttled due to excessive requests"},
	CodeUserLocked:          {http.StatusLocked, "Your account is locked due to repeated abuse"},
	CodeInternalError:       {http.StatusInternalServerError, "An unexpected error occurred"},
	CodeServiceUnavailable:  {http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// Codes returns every API error code.
func Codes() []Code {
	out := make([]Code, 0, len(codeTable))
	for c := range codeTable {
		out = append(out, c)
	}
	return out
}

// Status returns the HTTP status for c.
func (c Code) Status() int { return mustInfo(c).status }

// DefaultMessage returns the message used when none is given.
func (c Code) DefaultMessage() string { return mustInfo(c).message }

func mustInfo(c Code) codeInfo {
	info, ok := codeTable[c]
	if !ok {
		panic(fmt.Sprintf("httpx: unknown error code %q", string(c)))
	}
	return info
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// APIError is the error envelope body.
type APIError struct {
	Status     string       `json:"status"`
	Code       Code         `json:"code"`
	Message    string       `json:"message"`
	Errors     []FieldError `json:"errors"`
	HTTPStatus int          `json:"http_status"`
	RetryAfter *int         `json:"retry_after,omitempty"`
}

// NewAPIError builds an error envelope. An empty message uses the code default.
// It panics on a code outside the closed set.
func NewAPIError(code Code, message string, fieldErrs ...FieldError) APIError {
	info := mustInfo(code)
	if message == "" {
		message = info.message
	}
	if fieldErrs == nil {
		fieldErrs = []FieldError{}
	}
	return APIError{
		Status:     "error",
		Code:       code,
		Message:    message,
		Errors:     fieldErrs,
		HTTPStatus: info.status,
	}
}

// WithRetryAfter sets retry_after in whole seconds.
func (e APIError) WithRetryAfter(seconds int) APIError {
	e.RetryAfter = &seconds
	return e
}

type okEnvelope struct {
	Status string      `json:"status"`
	Data   any         `json:"data"`
	Meta   *model.Page `json:"meta,omitempty"`
}

// Deleted is the payload of a successful delete.
type Deleted struct {
	Success bool `json:"success"`
}

// WriteOK writes a success envelope.
func WriteOK(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, okEnvelope{Status: "ok", Data: data})
}

// WriteList writes a success envelope with pagination meta. A nil slice is written as [].
func WriteList[T any](w http.ResponseWriter, items []T, page model.Page) {
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, okEnvelope{Status: "ok", Data: items, Meta: &page})
}

// WriteFail writes an error envelope with the status its code maps to.
func WriteFail(w http.ResponseWriter, e APIError) {
	if e.RetryAfter != nil {
		w.Header().Set("Retry-After", strconv.Itoa(*e.RetryAfter))
	}
	WriteJSON(w, e.HTTPStatus, e)
}

// domainCodes maps domain error codes onto API codes.
var domainCodes = map[apperrors.ErrorCode]Code{ //nolint:gochecknoglobals // read-only mapping
	apperrors.ErrCodeNotFound:            CodeNotFound,
	apperrors.ErrCodeValidation:          CodeValidationError,
	apperrors.ErrCodeMalformedConfig:     CodeValidationError,
	apperrors.ErrCodeHasDependents:       CodeValidationError,
	apperrors.ErrCodeReferenceNotFound:   CodeValidationError,
	apperrors.ErrCodeInvalidTransition:   CodeValidationError,
	apperrors.ErrCodeConflict:            CodeAlreadyExists,
	apperrors.ErrCodeUnauthorized:        CodeUnauthorized,
	apperrors.ErrCodeTokenExpired:        CodeTokenExpired,
	apperrors.ErrCodeInvalidCredentials:  CodeInvalidCredentials,
	apperrors.ErrCodeInvalidRefreshToken: CodeInvalidRefreshToken,
	apperrors.ErrCodeForbidden:           CodeForbidden,
	apperrors.ErrCodeLocked:              CodeUserLocked,
	apperrors.ErrCodeUnavailable:         CodeServiceUnavailable,
}

// TranslateError converts a domain error into an error envelope. Errors that do not
// carry a known AppError code become INTERNAL_ERROR with the default message only.
func TranslateError(err error) APIError {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return NewAPIError(CodeInternalError, "")
	}
	code, ok := domainCodes[appErr.Code]
	if !ok {
		return NewAPIError(CodeInternalError, "")
	}
	if code == CodeServiceUnavailable {
		return NewAPIError(code, "")
	}
	msg := appErr.Message
	var fields []FieldError
	if appErr.Field != "" {
		fields = []FieldError{{Field: appErr.Field, Message: msg}}
	}
	if appErr.Code == apperrors.ErrCodeMalformedConfig && appErr.Cause != nil {
		fields = []FieldError{{Field: appErr.Field, Message: appErr.Cause.Error()}}
	}
	return NewAPIError(code, msg, fields...)
}

// WriteAppError translates err and writes it. Internal errors are logged with their cause.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	e := TranslateError(err)
	if e.HTTPStatus >= http.StatusInternalServerError {
		loggerFrom(r).ErrorContext(r.Context(), "request failed",
			slog.String("code", string(e.Code)),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	WriteFail(w, e)
}

// WriteValidation writes a VALIDATION_ERROR for one field.
func WriteValidation(w http.ResponseWriter, field, message string) {
	WriteFail(w, NewAPIError(CodeValidationError, message, FieldError{Field: field, Message: message}))
}
