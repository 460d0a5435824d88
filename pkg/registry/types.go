package registry

import (
	"context"
	"time"
)

// Release is a published flake release tied to an owner/repo identity.
// ID is the internal database key and is never serialized to clients;
// owner+repo+version is the externally meaningful key, though uniqueness of
// that triple is not enforced at this layer. Commit and Readme are only
// populated by the per-repository detail queries.
type Release struct {
	ID          int64
	Owner       string
	Repo        string
	Version     string
	Description string
	CreatedAt   time.Time
	Commit      string
	Readme      string
}

// ReleaseStore is the relational accessor for flake releases.
type ReleaseStore interface {
	// ListRecent returns the newest releases, creation time descending,
	// capped at 100 rows.
	ListRecent(ctx context.Context) ([]Release, error)

	// ListByIDs hydrates full release records for the given identifiers in
	// no particular order. An empty identifier set returns an empty slice
	// without touching the database.
	ListByIDs(ctx context.Context, ids []int64) ([]Release, error)

	// ResolveRepoID resolves an (owner, repo) pair to its internal
	// identifier. A missing pair is reported via ok=false, not an error.
	ResolveRepoID(ctx context.Context, owner, repo string) (id int64, ok bool, err error)

	// ListByRepoID returns all releases for a repository, including the
	// extended fields (commit, readme), in no particular order.
	ListByRepoID(ctx context.Context, id int64) ([]Release, error)
}

// Searcher is the full-text search accessor. SearchFlakes returns a mapping
// from release identifier to relevance score, bounded to at most 10 hits.
type Searcher interface {
	SearchFlakes(ctx context.Context, query string) (map[int64]float64, error)
}
