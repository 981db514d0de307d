// Package testutil provides database, Redis and fixture helpers shared by tests.
package testutil

import (
	"context"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with a default name.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{Name: "test-job"},
	}
}

// WithName sets the job name.
func (b *JobRequestBuilder) WithName(name string) *JobRequestBuilder {
	b.req.Name = name
	return b
}

// WithProject sets the parent project.
func (b *JobRequestBuilder) WithProject(projectID string) *JobRequestBuilder {
	b.req.ProjectID = &projectID
	return b
}

// WithRawYAML sets the raw configuration and the parsed document stores expect alongside it.
func (b *JobRequestBuilder) WithRawYAML(raw string, parsed model.Document) *JobRequestBuilder {
	b.req.RawYAML = &raw
	b.req.ParsedYAML = parsed
	return b
}

// WithActive sets is_active.
func (b *JobRequestBuilder) WithActive(active bool) *JobRequestBuilder {
	b.req.IsActive = &active
	return b
}

// Build returns the built request.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}

// Chain is one project with a job, a run and a result beneath it.
type Chain struct {
	Project *model.Project
	Job     *model.Job
	Run     *model.Run
	Result  *model.Result
}

// TestingFatal is the subset of testing.TB needed by fixture builders.
type TestingFatal interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

// SeedChain creates a full Project -> Job -> Run -> Result chain through repos.
func SeedChain(t TestingFatal, repos core.Repositories) Chain {
	t.Helper()
	ctx := context.Background()

	p, err := repos.Projects.Create(ctx, &model.CreateProjectRequest{Name: "seed-project"})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	j, err := repos.Jobs.Create(ctx, NewJobRequest().WithProject(p.ID).Build())
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	r, err := repos.Runs.Create(ctx, &model.CreateRunRequest{JobID: j.ID})
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}
	res, err := repos.Results.Create(ctx, &model.CreateResultRequest{
		RunID:   r.ID,
		Payload: model.Document{"title": "seed"},
	})
	if err != nil {
		t.Fatalf("seed result: %v", err)
	}
	return Chain{Project: p, Job: j, Run: r, Result: res}
}
