package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/harvester-api/internal/domain/model"
)

func TestDecodeJSON_Classification(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantOK    bool
		wantCode  Code
		wantField string
	}{
		{name: "valid", body: `{"status":"success","logs":"done"}`, wantOK: true},
		{name: "syntax", body: `{"status":`, wantCode: CodeInvalidInput},
		{name: "garbage", body: `not json`, wantCode: CodeInvalidInput},
		{name: "empty", body: ``, wantCode: CodeInvalidInput},
		{name: "trailing object", body: `{} {}`, wantCode: CodeInvalidInput},
		{name: "unknown field", body: `{"colour":"red"}`, wantCode: CodeValidationError, wantField: "colour"},
		{name: "wrong type", body: `{"logs":42}`, wantCode: CodeValidationError, wantField: "logs"},
		{name: "bad enum", body: `{"status":"paused"}`, wantCode: CodeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))

			var dst model.UpdateRunRequest
			ok := DecodeJSON(rec, req, &dst)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, dst.Status)
				assert.Equal(t, model.RunStatusSuccess, *dst.Status)
				return
			}
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			if tt.wantField != "" {
				require.NotEmpty(t, body.Errors)
				assert.Equal(t, tt.wantField, body.Errors[0].Field)
			}
		})
	}
}

func TestDecodeJSON_DocumentMustBeObject(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"run_id":"x","payload":[1,2]}`))

	var dst model.CreateResultRequest
	require.False(t, DecodeJSON(rec, req, &dst))
	assert.Equal(t, CodeValidationError, decodeError(t, rec).Code)
}
