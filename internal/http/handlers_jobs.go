// Package httpx provides the JSON HTTP API for projects, jobs, runs and results.
package httpx

import (
	"context"
	"net/http"
	"net/url"

	"github.com/target/harvester-api/internal/domain/model"
	"github.com/target/harvester-api/internal/service"
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc *service.JobService
}

// CreateJob handles HTTP requests to create a new job.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}

	WriteOK(w, http.StatusCreated, job)
}

// ListJobs handles GET /api/jobs/ with an optional project_id filter.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	HandleList(ListHandlerOpts[*model.Job, model.JobListOptions]{
		W:       w,
		R:       r,
		Filters: parseJobFilters,
		Fetch: func(ctx context.Context, f model.JobListOptions, pg pageOpts) ([]*model.Job, int, error) {
			f.Limit, f.Offset = pg.Limit(), pg.Offset()
			return h.Svc.List(ctx, f)
		},
	})
}

func parseJobFilters(q url.Values) (model.JobListOptions, *FieldError) {
	projectID, fe := parseUUIDQuery(q, "project_id")
	return model.JobListOptions{ProjectID: projectID}, fe
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, job)
}

// UpdateJob handles PUT /api/jobs/{id}. A malformed raw_yaml leaves the job unchanged.
func (h *JobHandlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	job, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, job)
}

// DeleteJob handles DELETE /api/jobs/{id}.
func (h *JobHandlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, Deleted{Success: true})
}
