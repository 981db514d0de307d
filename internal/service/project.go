package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/harvester-api/internal/core"
	domainauth "github.com/target/harvester-api/internal/domain/auth"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/ports"
)

// ProjectServiceOptions groups dependencies for ProjectService.
type ProjectServiceOptions struct {
	Repo   core.ProjectRepository // Required
	Policy ports.OwnershipPolicy  // Required: there is no implicit default
	Logger *slog.Logger           // Optional
}

// ProjectService applies the ownership policy around project storage.
type ProjectService struct {
	repo   core.ProjectRepository
	policy ports.OwnershipPolicy
	logger *slog.Logger
}

// NewProjectService constructs a new ProjectService.
func NewProjectService(opts ProjectServiceOptions) *ProjectService {
	if opts.Repo == nil {
		panic("ProjectRepository is required")
	}
	if opts.Policy == nil {
		panic("OwnershipPolicy is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{
		repo:   opts.Repo,
		policy: opts.Policy,
		logger: logger.With("component", "project_service"),
	}
}

// Create creates a project owned according to the policy.
func (s *ProjectService) Create(
	ctx context.Context,
	p *domainauth.Principal,
	req *model.CreateProjectRequest,
) (*model.Project, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.OwnerID = s.policy.OwnerForCreate(p)

	project, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// GetByID returns a project the principal may access.
func (s *ProjectService) GetByID(ctx context.Context, p *domainauth.Principal, id string) (*model.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if !s.policy.CanAccess(p, project) {
		return nil, apperrors.Forbidden("you do not have access to this project")
	}
	return project, nil
}

// List returns the projects visible to the principal.
func (s *ProjectService) List(
	ctx context.Context,
	p *domainauth.Principal,
	opts model.ProjectListOptions,
) ([]*model.Project, int, error) {
	opts.OwnerID = s.policy.ListOwnerFilter(p)
	projects, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	return projects, total, nil
}

// Update renames a project the principal may access.
func (s *ProjectService) Update(
	ctx context.Context,
	p *domainauth.Principal,
	id string,
	req model.UpdateProjectRequest,
) (*model.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetByID(ctx, p, id); err != nil {
		return nil, err
	}
	project, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// Delete removes a project the principal may access. A project with jobs is kept
// and HasDependents is returned.
func (s *ProjectService) Delete(ctx context.Context, p *domainauth.Principal, id string) error {
	if _, err := s.GetByID(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.logger.InfoContext(ctx, "project deleted", "project_id", id)
	return nil
}
