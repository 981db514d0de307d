package model

import (
	"strings"
	"time"

	apperrors "github.com/target/harvester-api/internal/errors"
)

// Result is a payload captured by a run. A run may own any number of results.
type Result struct {
	ID        string    `json:"id"         db:"id"`
	RunID     *string   `json:"run_id"     db:"run_id"`
	Payload   Document  `json:"payload"    db:"payload"`
	Artifacts Document  `json:"artifacts"  db:"artifacts"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateResultRequest holds fields for creating a result.
type CreateResultRequest struct {
	RunID     string   `json:"run_id"`
	Payload   Document `json:"payload,omitempty"`
	Artifacts Document `json:"artifacts,omitempty"`
}

// Validate validates the request.
func (r *CreateResultRequest) Validate() error {
	r.RunID = strings.TrimSpace(r.RunID)
	if r.RunID == "" {
		return apperrors.ValidationField("run_id", "run_id is required")
	}
	return nil
}

// UpdateResultRequest holds fields for updating a result. A nil document leaves the
// stored value unchanged.
type UpdateResultRequest struct {
	Payload   Document `json:"payload,omitempty"`
	Artifacts Document `json:"artifacts,omitempty"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateResultRequest) HasUpdates() bool {
	return r.Payload != nil || r.Artifacts != nil
}

// ResultListOptions holds list filters and pagination.
type ResultListOptions struct {
	RunID  *string
	Limit  int
	Offset int
}

// ResultDownload is the body of a result download.
type ResultDownload struct {
	ID          string   `json:"id"`
	Payload     any      `json:"payload"`
	Artifacts   Document `json:"artifacts"`
	DownloadURL string   `json:"download_url"`
}
