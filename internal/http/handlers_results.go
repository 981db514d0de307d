package httpx

import (
	"context"
	"net/http"
	"net/url"

	"github.com/target/harvester-api/internal/domain/model"
	"github.com/target/harvester-api/internal/service"
)

// ResultHandlers serves /api/results.
type ResultHandlers struct {
	Svc *service.ResultService
}

// CreateResult handles POST /api/results/.
func (h *ResultHandlers) CreateResult(w http.ResponseWriter, r *http.Request) {
	var req model.CreateResultRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusCreated, res)
}

// ListResults handles GET /api/results/ with an optional run_id filter.
func (h *ResultHandlers) ListResults(w http.ResponseWriter, r *http.Request) {
	HandleList(ListHandlerOpts[*model.Result, model.ResultListOptions]{
		W:       w,
		R:       r,
		Filters: parseResultFilters,
		Fetch: func(ctx context.Context, f model.ResultListOptions, pg pageOpts) ([]*model.Result, int, error) {
			f.Limit, f.Offset = pg.Limit(), pg.Offset()
			return h.Svc.List(ctx, f)
		},
	})
}

func parseResultFilters(q url.Values) (model.ResultListOptions, *FieldError) {
	runID, fe := parseUUIDQuery(q, "run_id")
	return model.ResultListOptions{RunID: runID}, fe
}

// GetResult handles GET /api/results/{id}.
func (h *ResultHandlers) GetResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, res)
}

// UpdateResult handles PUT /api/results/{id}. Omitted documents are kept.
func (h *ResultHandlers) UpdateResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateResultRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, res)
}

// DeleteResult handles DELETE /api/results/{id}.
func (h *ResultHandlers) DeleteResult(w http.ResponseWriter, r *http.Request) {
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

// DownloadResult handles GET /api/results/{id}/download?select=<jmespath>.
func (h *ResultHandlers) DownloadResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.Svc.Download(r.Context(), service.DownloadInput{
		ID:     id,
		Select: r.URL.Query().Get("select"),
		URL:    downloadURL(id),
	})
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, out)
}

func downloadURL(id string) string {
	return "/api/results/" + id + "/download"
}
