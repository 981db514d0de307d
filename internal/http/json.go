package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 2 << 20

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
//
// Syntax errors, an empty body and oversized bodies are INVALID_INPUT. Wrong types,
// unknown fields and values rejected by a field's UnmarshalJSON/UnmarshalText are
// VALIDATION_ERROR.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteFail(w, classifyDecodeError(err))
		return false
	}
	if dec.More() {
		WriteFail(w, NewAPIError(CodeInvalidInput, "request body must contain a single JSON object"))
		return false
	}
	return true
}

func classifyDecodeError(err error) APIError {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return NewAPIError(CodeInvalidInput, "request body is not valid JSON")
	case errors.Is(err, io.EOF):
		return NewAPIError(CodeInvalidInput, "request body is required")
	case errors.As(err, &maxErr):
		return NewAPIError(CodeInvalidInput, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
	case errors.As(err, &typeErr):
		field := typeErr.Field
		msg := fmt.Sprintf("%s must be of type %s", field, typeErr.Type.String())
		return NewAPIError(CodeValidationError, msg, FieldError{Field: field, Message: msg})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		msg := "unknown field " + field
		return NewAPIError(CodeValidationError, msg, FieldError{Field: field, Message: msg})
	default:
		// Errors returned by custom unmarshalers (enums, documents).
		return NewAPIError(CodeValidationError, err.Error())
	}
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}
