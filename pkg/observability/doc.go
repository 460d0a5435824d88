// Package observability provides structured logging, Prometheus metrics,
// health probes, OpenTelemetry tracing setup, and graceful shutdown for the
// flakestry service.
package observability
