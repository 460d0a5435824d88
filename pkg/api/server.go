package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/flakestry/pkg/httputil"
	"github.com/platinummonkey/flakestry/pkg/observability"
)

// NewHandler builds the API router with the standard middleware chain
// (request IDs, logging, recovery, metrics) and OpenTelemetry HTTP
// instrumentation.
func NewHandler(handlers *Handlers, logger *observability.Logger, metrics *observability.Metrics) http.Handler {
	r := mux.NewRouter()
	handlers.RegisterRoutes(r)

	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.MetricsMiddleware(metrics),
	)

	return otelhttp.NewHandler(chain(r), "flakestry.api")
}
