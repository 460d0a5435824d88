package api

import (
	"time"

	"github.com/platinummonkey/flakestry/pkg/registry"
)

// FlakeRelease is the compact release shape returned by the listing/search
// endpoint. The internal identifier is never serialized.
type FlakeRelease struct {
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// FlakeReleaseDetail is the extended release shape returned by the
// per-repository endpoint.
type FlakeReleaseDetail struct {
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Commit      string    `json:"commit"`
	Readme      string    `json:"readme"`
}

// GetFlakeResponse is the body of GET /api/flake. Query echoes the original
// query string and is null when no query was given.
type GetFlakeResponse struct {
	Releases []FlakeRelease `json:"releases"`
	Count    int            `json:"count"`
	Query    *string        `json:"query"`
}

// RepoResponse is the body of GET /api/flake/{owner}/{repo}.
type RepoResponse struct {
	Releases []FlakeReleaseDetail `json:"releases"`
}

// NotFoundResponse is the body of a 404 result.
type NotFoundResponse struct {
	Detail string `json:"detail"`
}

func newNotFoundResponse() NotFoundResponse {
	return NotFoundResponse{Detail: "Not Found"}
}

func toFlakeReleases(releases []registry.Release) []FlakeRelease {
	out := make([]FlakeRelease, 0, len(releases))
	for _, r := range releases {
		out = append(out, FlakeRelease{
			Owner:       r.Owner,
			Repo:        r.Repo,
			Version:     r.Version,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}

func toFlakeReleaseDetails(releases []registry.Release) []FlakeReleaseDetail {
	out := make([]FlakeReleaseDetail, 0, len(releases))
	for _, r := range releases {
		out = append(out, FlakeReleaseDetail{
			Owner:       r.Owner,
			Repo:        r.Repo,
			Version:     r.Version,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
			Commit:      r.Commit,
			Readme:      r.Readme,
		})
	}
	return out
}
