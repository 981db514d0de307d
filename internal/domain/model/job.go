package model

import (
	"strings"
	"time"
)

// Job is a scraping definition. ParsedYAML is always derived from RawYAML.
type Job struct {
	ID         string     `json:"id"          db:"id"`
	ProjectID  *string    `json:"project_id"  db:"project_id"`
	Name       string     `json:"name"        db:"name"`
	RawYAML    *string    `json:"raw_yaml"    db:"raw_yaml"`
	ParsedYAML Document   `json:"parsed_yaml" db:"parsed_yaml"`
	CreatedAt  time.Time  `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"  db:"updated_at"`
	LastRunAt  *time.Time `json:"last_run_at" db:"last_run_at"`
	IsActive   bool       `json:"is_active"   db:"is_active"`
}

// CreateJobRequest holds fields for creating a job. ParsedYAML is filled in by the
// job service after validation and is never read from the wire.
type CreateJobRequest struct {
	ProjectID  *string  `json:"project_id,omitempty"`
	Name       string   `json:"name"`
	RawYAML    *string  `json:"raw_yaml,omitempty"`
	IsActive   *bool    `json:"is_active,omitempty"`
	ParsedYAML Document `json:"-"`
}

// Normalize trims whitespace on identifying fields.
func (r *CreateJobRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.ProjectID != nil {
		p := strings.TrimSpace(*r.ProjectID)
		r.ProjectID = &p
	}
}

// Validate validates the request.
func (r *CreateJobRequest) Validate() error {
	return validateName(r.Name)
}

// UpdateJobRequest holds fields for updating a job. When RawYAML is set the
// service also sets ParsedYAML, and stores write the two together.
type UpdateJobRequest struct {
	Name       *string  `json:"name,omitempty"`
	RawYAML    *string  `json:"raw_yaml,omitempty"`
	IsActive   *bool    `json:"is_active,omitempty"`
	ParsedYAML Document `json:"-"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateJobRequest) HasUpdates() bool {
	return r.Name != nil || r.RawYAML != nil || r.IsActive != nil
}

// Validate validates the request.
func (r *UpdateJobRequest) Validate() error {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		*r.Name = n
		if err := validateName(n); err != nil {
			return err
		}
	}
	return nil
}

// JobListOptions holds list filters and pagination.
type JobListOptions struct {
	ProjectID *string
	Limit     int
	Offset    int
}
