package core

import (
	"context"
	"time"

	"github.com/target/harvester-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.
//
// All repositories share the same error contract (internal/errors):
//   - GetByID/Update/Delete on an unknown id return a NotFound error.
//   - Create naming a parent id that does not exist returns ReferenceNotFound.
//   - Delete of a record that still has children returns HasDependents and changes nothing.
//   - List returns records in insertion order plus the total count matching the filter.

// ProjectRepository defines the interface for project data operations.
type ProjectRepository interface {
	Create(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, opts model.ProjectListOptions) ([]*model.Project, int, error)
	Update(ctx context.Context, id string, req model.UpdateProjectRequest) (*model.Project, error)
	Delete(ctx context.Context, id string) error
}

// JobRepository defines the interface for job data operations.
// Update writes RawYAML and ParsedYAML as one unit.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, int, error)
	Update(ctx context.Context, id string, req model.UpdateJobRequest) (*model.Job, error)
	Delete(ctx context.Context, id string) error
	// MarkRun records that a run of the job was started at the given time.
	MarkRun(ctx context.Context, id string, at time.Time) error
}

// TransitionParams groups parameters for RunRepository.TransitionStatus.
type TransitionParams struct {
	ID   string
	From []model.RunStatus
	To   model.RunStatus
}

// RunRepository defines the interface for run data operations.
type RunRepository interface {
	Create(ctx context.Context, req *model.CreateRunRequest) (*model.Run, error)
	GetByID(ctx context.Context, id string) (*model.Run, error)
	List(ctx context.Context, opts model.RunListOptions) ([]*model.Run, int, error)
	Update(ctx context.Context, id string, req model.UpdateRunRequest) (*model.Run, error)
	Delete(ctx context.Context, id string) error
	// TransitionStatus sets the status to To only if the stored status is one of From.
	// It returns InvalidTransition when the stored status is not in From and NotFound
	// when the run does not exist.
	TransitionStatus(ctx context.Context, params TransitionParams) (*model.Run, error)
}

// ResultRepository defines the interface for result data operations.
type ResultRepository interface {
	Create(ctx context.Context, req *model.CreateResultRequest) (*model.Result, error)
	GetByID(ctx context.Context, id string) (*model.Result, error)
	List(ctx context.Context, opts model.ResultListOptions) ([]*model.Result, int, error)
	Update(ctx context.Context, id string, req model.UpdateResultRequest) (*model.Result, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user account data operations.
type UserRepository interface {
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Repositories bundles one implementation of every entity store port.
type Repositories struct {
	Projects ProjectRepository
	Jobs     JobRepository
	Runs     RunRepository
	Results  ResultRepository
	Users    UserRepository
	Health   HealthChecker
}
