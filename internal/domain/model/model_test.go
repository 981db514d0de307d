package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/harvester-api/internal/errors"
)

func TestRunStatus_Valid(t *testing.T) {
	for _, s := range []RunStatus{RunStatusQueued, RunStatusRunning, RunStatusSuccess, RunStatusFailure} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, RunStatus("done").Valid())
}

func TestRunStatus_UnmarshalText(t *testing.T) {
	var s RunStatus
	require.NoError(t, s.UnmarshalText([]byte(" Failure ")))
	assert.Equal(t, RunStatusFailure, s)
	require.Error(t, s.UnmarshalText([]byte("paused")))

	var req UpdateRunRequest
	require.Error(t, json.Unmarshal([]byte(`{"status":"paused"}`), &req))
	require.NoError(t, json.Unmarshal([]byte(`{"status":"success","logs":"ok"}`), &req))
	assert.True(t, req.HasUpdates())
	assert.Equal(t, RunStatusSuccess, *req.Status)
}

func TestCreateProjectRequest_Validate(t *testing.T) {
	req := &CreateProjectRequest{Name: "   "}
	req.Normalize()
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "name", apperrors.GetField(err))

	long := &CreateProjectRequest{Name: strings.Repeat("x", 256)}
	require.Error(t, long.Validate())

	ok := &CreateProjectRequest{Name: " P "}
	ok.Normalize()
	require.NoError(t, ok.Validate())
	assert.Equal(t, "P", ok.Name)
}

func TestUpdateProjectRequest_Validate(t *testing.T) {
	require.Error(t, (&UpdateProjectRequest{}).Validate())
	name := " renamed "
	req := &UpdateProjectRequest{Name: &name}
	require.NoError(t, req.Validate())
	assert.Equal(t, "renamed", *req.Name)
}

func TestUpdateJobRequest(t *testing.T) {
	assert.False(t, (&UpdateJobRequest{}).HasUpdates())
	empty := ""
	req := &UpdateJobRequest{Name: &empty}
	assert.True(t, req.HasUpdates())
	require.Error(t, req.Validate())
}

func TestCreateRunAndResultRequests_RequireParent(t *testing.T) {
	err := (&CreateRunRequest{}).Validate()
	require.Error(t, err)
	assert.Equal(t, "job_id", apperrors.GetField(err))

	err = (&CreateResultRequest{RunID: " "}).Validate()
	require.Error(t, err)
	assert.Equal(t, "run_id", apperrors.GetField(err))
}

func TestCreateUserRequest_Validate(t *testing.T) {
	req := &CreateUserRequest{Email: " Alice@Example.COM ", Password: "longenough"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "alice@example.com", req.Email)

	require.Error(t, (&CreateUserRequest{Email: "not-an-email", Password: "longenough"}).Validate())
	require.Error(t, (&CreateUserRequest{Email: "a@b.co", Password: "short"}).Validate())
}
