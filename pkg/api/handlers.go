package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/flakestry/pkg/httputil"
	"github.com/platinummonkey/flakestry/pkg/observability"
	"github.com/platinummonkey/flakestry/pkg/registry"
)

// Handlers provides the HTTP handlers for the flake API
type Handlers struct {
	service *registry.Service
}

// NewHandlers creates new flake API handlers
func NewHandlers(service *registry.Service) *Handlers {
	return &Handlers{
		service: service,
	}
}

// RegisterRoutes registers all flake API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/flake", h.GetFlake).Methods("GET")
	r.HandleFunc("/api/flake/{owner}/{repo}", h.GetRepo).Methods("GET")
	r.HandleFunc("/api/publish", h.PostPublish).Methods("POST")
}

// GetFlake handles GET /api/flake. Without a q parameter it lists the most
// recent releases; with one it searches the index and returns releases
// ranked by relevance.
func (h *Handlers) GetFlake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// A present-but-empty q still counts as a query.
	var query *string
	if vals, ok := r.URL.Query()["q"]; ok && len(vals) > 0 {
		query = &vals[0]
	}

	result, err := h.service.Query(ctx, query)
	if err != nil {
		observability.FromContext(ctx).WithError(err).Error("flake query failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, GetFlakeResponse{
		Releases: toFlakeReleases(result.Releases),
		Count:    result.Count,
		Query:    result.Query,
	})
}

// GetRepo handles GET /api/flake/{owner}/{repo}: all releases of one
// repository in their extended shape, version descending.
func (h *Handlers) GetRepo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	releases, err := h.service.RepoReleases(ctx, vars["owner"], vars["repo"])
	if errors.Is(err, registry.ErrRepoNotFound) {
		httputil.WriteJSON(w, http.StatusNotFound, newNotFoundResponse())
		return
	}
	if err != nil {
		observability.FromContext(ctx).WithError(err).Error("repo listing failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, RepoResponse{
		Releases: toFlakeReleaseDetails(releases),
	})
}

// PostPublish handles POST /api/publish. Publish semantics are not
// implemented; this returns a fixed placeholder response.
func (h *Handlers) PostPublish(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"detail": "publish is not implemented yet",
	})
}
