package model

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/target/harvester-api/internal/errors"
)

// RunStatus represents the lifecycle state of a run.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type RunStatus string

const (
	// RunStatusQueued is the initial state of every run.
	RunStatusQueued RunStatus = "queued"
	// RunStatusRunning indicates the execution engine has been asked to run it.
	RunStatusRunning RunStatus = "running"
	// RunStatusSuccess indicates the engine reported success.
	RunStatusSuccess RunStatus = "success"
	// RunStatusFailure indicates the engine reported failure.
	RunStatusFailure RunStatus = "failure"
)

// Valid returns true if the RunStatus is one of the known states.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusQueued, RunStatusRunning, RunStatusSuccess, RunStatusFailure:
		return true
	default:
		return false
	}
}

// UnmarshalText rejects unknown statuses during JSON and query decoding.
func (s *RunStatus) UnmarshalText(text []byte) error {
	v := RunStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid run status: %q", string(text))
	}
	*s = v
	return nil
}

// Run is one execution attempt of a job. PrefectState and PrefectFlowRunID are
// opaque handles reported by the external workflow engine.
type Run struct {
	ID               string     `json:"id"                  db:"id"`
	JobID            *string    `json:"job_id"              db:"job_id"`
	Status           RunStatus  `json:"status"              db:"status"`
	PrefectState     *string    `json:"prefect_state"       db:"prefect_state"`
	PrefectFlowRunID *string    `json:"prefect_flow_run_id" db:"prefect_flow_run_id"`
	Logs             *string    `json:"logs"                db:"logs"`
	StartedAt        *time.Time `json:"started_at"          db:"started_at"`
	FinishedAt       *time.Time `json:"finished_at"         db:"finished_at"`
	CreatedAt        time.Time  `json:"created_at"          db:"created_at"`
}

// CreateRunRequest holds fields for creating a run.
type CreateRunRequest struct {
	JobID string `json:"job_id"`
}

// Validate validates the request.
func (r *CreateRunRequest) Validate() error {
	r.JobID = strings.TrimSpace(r.JobID)
	if r.JobID == "" {
		return apperrors.ValidationField("job_id", "job_id is required")
	}
	return nil
}

// UpdateRunRequest holds fields reported by the execution engine.
type UpdateRunRequest struct {
	Status           *RunStatus `json:"status,omitempty"`
	PrefectState     *string    `json:"prefect_state,omitempty"`
	PrefectFlowRunID *string    `json:"prefect_flow_run_id,omitempty"`
	Logs             *string    `json:"logs,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateRunRequest) HasUpdates() bool {
	return r.Status != nil || r.PrefectState != nil || r.PrefectFlowRunID != nil ||
		r.Logs != nil || r.StartedAt != nil || r.FinishedAt != nil
}

// Validate validates the request.
func (r *UpdateRunRequest) Validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return apperrors.ValidationField("status", "status must be one of: queued, running, success, failure")
	}
	return nil
}

// RunListOptions holds list filters and pagination.
type RunListOptions struct {
	JobID  *string
	Status *RunStatus
	Limit  int
	Offset int
}

// TriggerResponse is the body returned by a successful trigger.
type TriggerResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}
