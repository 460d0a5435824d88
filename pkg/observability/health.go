package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger checks connectivity to an external dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker provides liveness and readiness probes over the service's
// external dependencies: the relational store and the search engine.
type HealthChecker struct {
	db     *sql.DB
	search Pinger
}

// NewHealthChecker creates a new health checker. Either dependency may be
// nil, in which case it is skipped.
func NewHealthChecker(db *sql.DB, search Pinger) *HealthChecker {
	return &HealthChecker{
		db:     db,
		search: search,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Liveness is a simple liveness probe; it returns 200 whenever the process
// is serving.
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	})
}

// Readiness checks all dependencies and returns 503 when any is unreachable.
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Dependencies: make(map[string]DependencyStatus),
	}

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Dependencies["postgres"] = DependencyStatus{Status: StatusUnhealthy, Message: err.Error()}
		} else {
			status.Dependencies["postgres"] = DependencyStatus{Status: StatusHealthy}
		}
	}

	if h.search != nil {
		if err := h.search.Ping(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Dependencies["opensearch"] = DependencyStatus{Status: StatusUnhealthy, Message: err.Error()}
		} else {
			status.Dependencies["opensearch"] = DependencyStatus{Status: StatusHealthy}
		}
	}

	code := http.StatusOK
	if status.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

// RegisterRoutes mounts the health probes on a ServeMux.
func (h *HealthChecker) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Liveness)
	mux.HandleFunc("/readyz", h.Readiness)
}
