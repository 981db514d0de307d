// Package devseed populates a store with a small demo data set for local
// development: projects with jobs, runs in several lifecycle states and results.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	"github.com/target/harvester-api/internal/domain/model"
	"github.com/target/harvester-api/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Projects *service.ProjectService
	Jobs     *service.JobService
	Runs     *service.RunService
	Results  *service.ResultService
	// Owner is recorded as the owner of seeded projects. Nil seeds unowned
	// projects, which only the open policy exposes.
	Owner *domainauth.Principal
	Now   func() time.Time
}

func (s Services) validate() error {
	if s.Projects == nil || s.Jobs == nil || s.Runs == nil || s.Results == nil {
		return errors.New("devseed: project, job, run and result services are required")
	}
	return nil
}

type seedJob struct {
	name   string
	yaml   string
	active bool
	// runs lists the final status of each run seeded for the job.
	runs []model.RunStatus
}

type seedProject struct {
	name string
	jobs []seedJob
}

var demoProjects = []seedProject{
	{
		name: "Demo Storefront",
		jobs: []seedJob{
			{
				name:   "product-catalog",
				active: true,
				yaml: `start_urls:
  - https://shop.example.com/catalog
selectors:
  title: "h1.product-title"
  price: "span.price"
follow_links: true
max_pages: 50
`,
				runs: []model.RunStatus{model.RunStatusSuccess, model.RunStatusQueued},
			},
			{
				name:   "store-locator",
				active: false,
				yaml: `start_urls:
  - https://shop.example.com/stores
selectors:
  address: "div.store address"
`,
				runs: []model.RunStatus{model.RunStatusFailure},
			},
		},
	},
	{
		name: "Demo News Monitor",
		jobs: []seedJob{
			{
				name:   "headlines",
				active: true,
				yaml: `start_urls:
  - https://news.example.com/
selectors:
  headline: "article h2"
schedule: "*/30 * * * *"
`,
				runs: []model.RunStatus{model.RunStatusRunning},
			},
		},
	},
}

// Run seeds every demo project that does not exist yet. Existing projects are
// matched by name and left untouched, so the seeder is safe to rerun.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if err := svcs.validate(); err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if svcs.Now == nil {
		svcs.Now = time.Now
	}

	existing, err := existingProjects(ctx, svcs)
	if err != nil {
		return err
	}

	failures := 0
	for _, sp := range demoProjects {
		if _, ok := existing[sp.name]; ok {
			logger.InfoContext(ctx, "project already exists", "name", sp.name)
			continue
		}
		failures += seedProjectTree(ctx, svcs, sp, logger)
	}
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func existingProjects(ctx context.Context, svcs Services) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		page, total, err := svcs.Projects.List(ctx, svcs.Owner, model.ProjectListOptions{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		for _, p := range page {
			names[p.Name] = struct{}{}
		}
		if len(page) == 0 || offset+len(page) >= total {
			return names, nil
		}
	}
}

func seedProjectTree(ctx context.Context, svcs Services, sp seedProject, logger *slog.Logger) int {
	project, err := svcs.Projects.Create(ctx, svcs.Owner, &model.CreateProjectRequest{Name: sp.name})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create project", "name", sp.name, "error", err)
		return 1
	}
	logger.InfoContext(ctx, "created project", "name", sp.name, "id", project.ID)

	failures := 0
	for _, sj := range sp.jobs {
		failures += seedJobTree(ctx, svcs, project.ID, sj, logger)
	}
	return failures
}

func seedJobTree(ctx context.Context, svcs Services, projectID string, sj seedJob, logger *slog.Logger) int {
	raw := sj.yaml
	active := sj.active
	job, err := svcs.Jobs.Create(ctx, &model.CreateJobRequest{
		ProjectID: &projectID,
		Name:      sj.name,
		RawYAML:   &raw,
		IsActive:  &active,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create job", "name", sj.name, "error", err)
		return 1
	}
	logger.InfoContext(ctx, "created job", "name", sj.name, "id", job.ID)

	failures := 0
	for i, status := range sj.runs {
		if err := seedRun(ctx, svcs, job, i, status); err != nil {
			logger.ErrorContext(ctx, "failed to seed run", "job", sj.name, "status", string(status), "error", err)
			failures++
		}
	}
	return failures
}

// seedRun creates a run and drives it to status the way the execution engine
// would: trigger for running, then a status report for terminal states.
func seedRun(ctx context.Context, svcs Services, job *model.Job, seq int, status model.RunStatus) error {
	run, err := svcs.Runs.Create(ctx, &model.CreateRunRequest{JobID: job.ID})
	if err != nil {
		return err
	}
	if status == model.RunStatusQueued {
		return nil
	}
	if _, err := svcs.Runs.Trigger(ctx, run.ID); err != nil {
		return err
	}
	if status == model.RunStatusRunning {
		return nil
	}

	finished := svcs.Now().UTC()
	started := finished.Add(-2 * time.Minute)
	flowRunID := fmt.Sprintf("demo-%s-%d", job.Name, seq)
	state := "COMPLETED"
	logs := "scraped 42 pages"
	if status == model.RunStatusFailure {
		state = "FAILED"
		logs = "connection refused after 3 retries"
	}
	if _, err := svcs.Runs.Update(ctx, run.ID, model.UpdateRunRequest{
		Status:           &status,
		PrefectState:     &state,
		PrefectFlowRunID: &flowRunID,
		Logs:             &logs,
		StartedAt:        &started,
		FinishedAt:       &finished,
	}); err != nil {
		return err
	}
	if status != model.RunStatusSuccess {
		return nil
	}

	_, err = svcs.Results.Create(ctx, &model.CreateResultRequest{
		RunID: run.ID,
		Payload: model.Document{
			"job":   job.Name,
			"pages": 42,
			"items": []any{
				map[string]any{"title": "Example item", "price": "19.99"},
			},
		},
		Artifacts: model.Document{
			"har": fmt.Sprintf("s3://harvester-demo/%s/%d.har", job.Name, seq),
		},
	})
	return err
}
