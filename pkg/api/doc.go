// Package api exposes the flakestry HTTP surface: the flake search/listing
// endpoint, the per-repository release listing, and the publish stub.
//
// Responses are JSON throughout. Storage and search faults map uniformly to
// HTTP 500 with the error's textual description; an unknown owner/repo pair
// is a first-class 404, not an error.
package api
