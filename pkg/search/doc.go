// Package search implements the full-text search accessor for flake
// releases on top of the OpenSearch HTTP client.
//
// The accessor decodes engine responses into typed structures with explicit
// required fields; a response missing the hit array, a hit identifier, or a
// relevance score is a hard failure surfaced as registry.ExternalServiceError,
// never a partial result.
package search
