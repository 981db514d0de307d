package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

// ResultServiceOptions groups dependencies for ResultService.
type ResultServiceOptions struct {
	Repo   core.ResultRepository // Required
	Runs   core.RunRepository    // Required: parent lookups
	Logger *slog.Logger          // Optional
}

// ResultService manages captured results and their downloads.
type ResultService struct {
	repo   core.ResultRepository
	runs   core.RunRepository
	logger *slog.Logger
}

// NewResultService constructs a new ResultService.
func NewResultService(opts ResultServiceOptions) *ResultService {
	if opts.Repo == nil {
		panic("ResultRepository is required")
	}
	if opts.Runs == nil {
		panic("RunRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultService{repo: opts.Repo, runs: opts.Runs, logger: logger.With("component", "result_service")}
}

// Create stores a result under an existing run.
func (s *ResultService) Create(ctx context.Context, req *model.CreateResultRequest) (*model.Result, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := requireParent(ctx, req.RunID, "run_id", s.runs.GetByID); err != nil {
		return nil, err
	}
	res, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create result: %w", err)
	}
	return res, nil
}

// GetByID returns a result.
func (s *ResultService) GetByID(ctx context.Context, id string) (*model.Result, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// List returns results, optionally filtered by run.
func (s *ResultService) List(ctx context.Context, opts model.ResultListOptions) ([]*model.Result, int, error) {
	results, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	return results, total, nil
}

// Update replaces payload and/or artifacts.
func (s *ResultService) Update(ctx context.Context, id string, req model.UpdateResultRequest) (*model.Result, error) {
	res, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update result: %w", err)
	}
	return res, nil
}

// Delete removes a result.
func (s *ResultService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

// DownloadInput groups parameters for Download.
type DownloadInput struct {
	ID string
	// Select is an optional JMESPath expression applied to the payload.
	Select string
	// URL is the download location reported back to the caller.
	URL string
}

// Download returns a result's documents. A non-empty Select replaces the payload
// with its projection; an expression that does not compile is a validation error.
func (s *ResultService) Download(ctx context.Context, in DownloadInput) (*model.ResultDownload, error) {
	expr := strings.TrimSpace(in.Select)
	if expr != "" {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, apperrors.ValidationField("select", "invalid JMESPath expression: "+err.Error())
		}
	}

	res, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}

	out := &model.ResultDownload{
		ID:          res.ID,
		Artifacts:   res.Artifacts,
		DownloadURL: in.URL,
	}
	switch {
	case res.Payload == nil:
		// A missing payload projects to null as well.
	case expr == "":
		out.Payload = map[string]any(res.Payload)
	default:
		projected, err := jmespath.Search(expr, map[string]any(res.Payload))
		if err != nil {
			return nil, apperrors.ValidationField("select", "JMESPath evaluation failed: "+err.Error())
		}
		out.Payload = projected
	}
	return out, nil
}
