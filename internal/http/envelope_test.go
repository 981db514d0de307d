package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestCodes_ClosedSet(t *testing.T) {
	assert.Len(t, Codes(), 14)
	assert.Panics(t, func() { NewAPIError(Code("TEAPOT"), "") })
	assert.Panics(t, func() { _ = Code("").Status() })
}

func TestWriteFail_StatusMatchesBody(t *testing.T) {
	for _, code := range Codes() {
		t.Run(string(code), func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteFail(rec, NewAPIError(code, ""))

			body := decodeError(t, rec)
			assert.Equal(t, rec.Code, body.HTTPStatus)
			assert.Equal(t, code.Status(), rec.Code)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, code, body.Code)
			assert.Equal(t, code.DefaultMessage(), body.Message)
			assert.NotNil(t, body.Errors)
			assert.Nil(t, body.RetryAfter)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteFail_RetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFail(rec, NewAPIError(CodeRateLimitExceeded, "").WithRetryAfter(7))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "7", rec.Header().Get("Retry-After"))
	body := decodeError(t, rec)
	require.NotNil(t, body.RetryAfter)
	assert.Equal(t, 7, *body.RetryAfter)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  Code
		wantMsg   string
		wantField string
	}{
		{name: "not found", err: apperrors.NotFound("run not found"), wantCode: CodeNotFound, wantMsg: "run not found"},
		{name: "validation field", err: apperrors.ValidationField("name", "name is required"),
			wantCode: CodeValidationError, wantMsg: "name is required", wantField: "name"},
		{name: "malformed config", err: apperrors.MalformedConfig("raw_yaml", errors.New("line 1: bad")),
			wantCode: CodeValidationError, wantMsg: "invalid YAML configuration", wantField: "raw_yaml"},
		{name: "has dependents", err: apperrors.HasDependents("cannot delete because it still has results"),
			wantCode: CodeValidationError, wantMsg: "cannot delete because it still has results"},
		{name: "reference not found", err: apperrors.ReferenceNotFound("job_id", "referenced job does not exist"),
			wantCode: CodeValidationError, wantField: "job_id", wantMsg: "referenced job does not exist"},
		{name: "invalid transition", err: apperrors.InvalidTransition("run is already running"),
			wantCode: CodeValidationError, wantMsg: "run is already running"},
		{name: "conflict", err: apperrors.Conflict("email taken"), wantCode: CodeAlreadyExists, wantMsg: "email taken"},
		{name: "expired", err: apperrors.TokenExpired("token has expired"), wantCode: CodeTokenExpired, wantMsg: "token has expired"},
		{name: "credentials", err: apperrors.InvalidCredentials(), wantCode: CodeInvalidCredentials, wantMsg: "invalid email or password"},
		{name: "refresh", err: apperrors.InvalidRefreshToken(errors.New("revoked")),
			wantCode: CodeInvalidRefreshToken, wantMsg: "invalid refresh token"},
		{name: "forbidden", err: apperrors.Forbidden("no access"), wantCode: CodeForbidden, wantMsg: "no access"},
		{name: "locked", err: apperrors.Locked("locked out"), wantCode: CodeUserLocked, wantMsg: "locked out"},
		{name: "unavailable hides cause", err: apperrors.Unavailable("redis down", errors.New("dial tcp")),
			wantCode: CodeServiceUnavailable, wantMsg: CodeServiceUnavailable.DefaultMessage()},
		{name: "wrapped", err: fmt.Errorf("get run: %w", apperrors.NotFound("run not found")),
			wantCode: CodeNotFound, wantMsg: "run not found"},
		{name: "plain error", err: errors.New("pq: connection reset"),
			wantCode: CodeInternalError, wantMsg: CodeInternalError.DefaultMessage()},
		{name: "timeout", err: apperrors.Wrap(errors.New("slow"), apperrors.ErrCodeTimeout, "request timed out"),
			wantCode: CodeInternalError, wantMsg: CodeInternalError.DefaultMessage()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.Equal(t, tt.wantCode.Status(), got.HTTPStatus)
			if tt.wantField != "" {
				require.Len(t, got.Errors, 1)
				assert.Equal(t, tt.wantField, got.Errors[0].Field)
			}
		})
	}
}

func TestTranslateError_MalformedConfigCarriesParserDetail(t *testing.T) {
	got := TranslateError(apperrors.MalformedConfig("raw_yaml", errors.New("yaml: line 1: did not find expected ',' or ']'")))
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0].Message, "did not find expected")
}

func TestWriteAppError_InternalDoesNotLeak(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs/", nil)
	WriteAppError(rec, req, errors.New("secret connection string"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestWriteOKAndList(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteOK(rec, http.StatusCreated, map[string]string{"id": "x"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"ok","data":{"id":"x"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteList[*model.Run](rec, nil, model.Page{Page: 2, PageSize: 10, Total: 11})
	assert.JSONEq(t, `{"status":"ok","data":[],"meta":{"page":2,"page_size":10,"total":11}}`, rec.Body.String())
}
