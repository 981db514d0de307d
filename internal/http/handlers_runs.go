package httpx

import (
	"context"
	"net/http"
	"net/url"

	"github.com/target/harvester-api/internal/domain/model"
	"github.com/target/harvester-api/internal/service"
)

// RunHandlers serves /api/runs including the trigger action.
type RunHandlers struct {
	Svc *service.RunService
}

// CreateRun handles POST /api/runs/. New runs start queued.
func (h *RunHandlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRunRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	run, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusCreated, run)
}

// ListRuns handles GET /api/runs/ with optional job_id and status filters.
func (h *RunHandlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	HandleList(ListHandlerOpts[*model.Run, model.RunListOptions]{
		W:       w,
		R:       r,
		Filters: parseRunFilters,
		Fetch: func(ctx context.Context, f model.RunListOptions, pg pageOpts) ([]*model.Run, int, error) {
			f.Limit, f.Offset = pg.Limit(), pg.Offset()
			return h.Svc.List(ctx, f)
		},
	})
}

func parseRunFilters(q url.Values) (model.RunListOptions, *FieldError) {
	jobID, fe := parseUUIDQuery(q, "job_id")
	if fe != nil {
		return model.RunListOptions{}, fe
	}
	status, fe := parseStatusQuery(q)
	if fe != nil {
		return model.RunListOptions{}, fe
	}
	return model.RunListOptions{JobID: jobID, Status: status}, nil
}

// GetRun handles GET /api/runs/{id}.
func (h *RunHandlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	run, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, run)
}

// UpdateRun handles PUT /api/runs/{id}.
func (h *RunHandlers) UpdateRun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateRunRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	run, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, run)
}

// DeleteRun handles DELETE /api/runs/{id}.
func (h *RunHandlers) DeleteRun(w http.ResponseWriter, r *http.Request) {
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

// TriggerRun handles POST /api/runs/{id}/trigger.
func (h *RunHandlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.Svc.Trigger(r.Context(), id)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, resp)
}
