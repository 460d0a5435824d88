// Package httputil provides HTTP handler utilities for consistent JSON
// encoding and the standard middleware chain (request IDs, logging,
// recovery, metrics).
package httputil
