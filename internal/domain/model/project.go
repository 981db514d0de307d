package model

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/target/harvester-api/internal/errors"
)

const maxNameLen = 255

// Project groups jobs. OwnerID is nil for projects created without a principal.
type Project struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	OwnerID   *string   `json:"owner_id"   db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateProjectRequest holds fields for creating a project.
type CreateProjectRequest struct {
	Name    string  `json:"name"`
	OwnerID *string `json:"-"`
}

// Normalize trims whitespace.
func (r *CreateProjectRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// Validate validates the request.
func (r *CreateProjectRequest) Validate() error {
	return validateName(r.Name)
}

// UpdateProjectRequest holds fields for updating a project.
type UpdateProjectRequest struct {
	Name *string `json:"name,omitempty"`
}

// Validate validates the request.
func (r *UpdateProjectRequest) Validate() error {
	if r.Name == nil {
		return apperrors.Validation("at least one field must be updated")
	}
	n := strings.TrimSpace(*r.Name)
	*r.Name = n
	return validateName(n)
}

// ProjectListOptions holds list filters and pagination.
type ProjectListOptions struct {
	OwnerID *string
	Limit   int
	Offset  int
}

func validateName(name string) error {
	if name == "" {
		return apperrors.ValidationField("name", "name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return apperrors.ValidationField("name", "name cannot exceed 255 characters")
	}
	return nil
}
