package httpx

import (
	"context"
	"net/http"

	"github.com/target/harvester-api/internal/domain/model"
	"github.com/target/harvester-api/internal/service"
)

// ProjectHandlers serves /api/projects. The caller's principal is passed to the
// service, which applies the configured ownership policy.
type ProjectHandlers struct {
	Svc *service.ProjectService
}

// CreateProject handles POST /api/projects/.
func (h *ProjectHandlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProjectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	project, err := h.Svc.Create(r.Context(), PrincipalFromContext(r.Context()), &req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusCreated, project)
}

// ListProjects handles GET /api/projects/.
func (h *ProjectHandlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	HandleList(ListHandlerOpts[*model.Project, struct{}]{
		W: w,
		R: r,
		Fetch: func(ctx context.Context, _ struct{}, pg pageOpts) ([]*model.Project, int, error) {
			return h.Svc.List(ctx, p, model.ProjectListOptions{Limit: pg.Limit(), Offset: pg.Offset()})
		},
	})
}

// GetProject handles GET /api/projects/{id}.
func (h *ProjectHandlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	project, err := h.Svc.GetByID(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, project)
}

// UpdateProject handles PUT /api/projects/{id}.
func (h *ProjectHandlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateProjectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	project, err := h.Svc.Update(r.Context(), PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/{id}.
func (h *ProjectHandlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), PrincipalFromContext(r.Context()), id); err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, Deleted{Success: true})
}
