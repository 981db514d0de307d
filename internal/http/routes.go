package httpx

import (
	"net/http"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/ports"
	"github.com/target/harvester-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Projects *service.ProjectService
	Jobs     *service.JobService
	Runs     *service.RunService
	Results  *service.ResultService
	// Auth serves /api/auth/*. Optional: without it only externally issued tokens work.
	Auth AuthServiceInterface
	// Validator gates every /api route except /api/auth/*. Required.
	Validator ports.TokenValidator
	// Health is pinged by /healthz, keyed by dependency name.
	Health map[string]core.HealthChecker
}

// crudHandlers is the common shape of the four entity handler sets.
type crudHandlers struct {
	list, create, get, update, remove http.HandlerFunc
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	if services.Validator == nil {
		panic("token validator is required")
	}
	if services.Projects == nil || services.Jobs == nil || services.Runs == nil || services.Results == nil {
		panic("project, job, run and result services are required")
	}
	mux := http.NewServeMux()
	auth := RequireAuth(services.Validator)

	projects := &ProjectHandlers{Svc: services.Projects}
	jobs := &JobHandlers{Svc: services.Jobs}
	runs := &RunHandlers{Svc: services.Runs}
	results := &ResultHandlers{Svc: services.Results}

	registerCRUD(mux, "/api/projects", auth, crudHandlers{
		list: projects.ListProjects, create: projects.CreateProject,
		get: projects.GetProject, update: projects.UpdateProject, remove: projects.DeleteProject,
	})
	registerCRUD(mux, "/api/jobs", auth, crudHandlers{
		list: jobs.ListJobs, create: jobs.CreateJob,
		get: jobs.GetJob, update: jobs.UpdateJob, remove: jobs.DeleteJob,
	})
	registerCRUD(mux, "/api/runs", auth, crudHandlers{
		list: runs.ListRuns, create: runs.CreateRun,
		get: runs.GetRun, update: runs.UpdateRun, remove: runs.DeleteRun,
	})
	registerCRUD(mux, "/api/results", auth, crudHandlers{
		list: results.ListResults, create: results.CreateResult,
		get: results.GetResult, update: results.UpdateResult, remove: results.DeleteResult,
	})
	mux.Handle("POST /api/runs/{id}/trigger", auth(http.HandlerFunc(runs.TriggerRun)))
	mux.Handle("GET /api/results/{id}/download", auth(http.HandlerFunc(results.DownloadResult)))

	if services.Auth != nil {
		registerAuthRoutes(mux, &AuthHandlers{Svc: services.Auth})
	}

	health := healthHandler(services.Health)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	return &notFoundHandler{mux: mux}
}

// registerCRUD mounts list/create on the collection (with and without a trailing
// slash) and get/update/delete on the item route.
func registerCRUD(mux *http.ServeMux, base string, auth func(http.Handler) http.Handler, h crudHandlers) {
	for _, coll := range []string{base, base + "/{$}"} {
		mux.Handle("GET "+coll, auth(h.list))
		mux.Handle("POST "+coll, auth(h.create))
	}
	item := base + "/{id}"
	mux.Handle("GET "+item, auth(h.get))
	mux.Handle("PUT "+item, auth(h.update))
	mux.Handle("DELETE "+item, auth(h.remove))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/token", h.Token)
	mux.HandleFunc("POST /api/auth/refresh", h.Refresh)
	mux.HandleFunc("POST /api/auth/revoke", h.Revoke)
}

// notFoundHandler writes the NOT_FOUND envelope for paths no route matches.
type notFoundHandler struct {
	mux *http.ServeMux
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := h.mux.Handler(r); pattern == "" {
		WriteFail(w, NewAPIError(CodeNotFound, ""))
		return
	}
	h.mux.ServeHTTP(w, r)
}
