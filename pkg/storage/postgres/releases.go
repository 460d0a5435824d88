package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/platinummonkey/flakestry/pkg/observability"
	"github.com/platinummonkey/flakestry/pkg/registry"
)

const listRecentQuery = `
	SELECT release.id AS id,
	       githubowner.name AS owner,
	       githubrepo.name AS repo,
	       release.version AS version,
	       release.description AS description,
	       release.created_at AS created_at
	FROM release
	INNER JOIN githubrepo ON githubrepo.id = release.repo_id
	INNER JOIN githubowner ON githubowner.id = githubrepo.owner_id
	ORDER BY release.created_at DESC
	LIMIT 100
`

const listByIDsQuery = `
	SELECT release.id AS id,
	       githubowner.name AS owner,
	       githubrepo.name AS repo,
	       release.version AS version,
	       release.description AS description,
	       release.created_at AS created_at
	FROM release
	INNER JOIN githubrepo ON githubrepo.id = release.repo_id
	INNER JOIN githubowner ON githubowner.id = githubrepo.owner_id
	WHERE release.id = ANY($1)
`

const resolveRepoIDQuery = `
	SELECT githubrepo.id AS id
	FROM githubrepo
	INNER JOIN githubowner ON githubowner.id = githubrepo.owner_id
	WHERE githubrepo.name = $1 AND githubowner.name = $2
	LIMIT 1
`

const listByRepoIDQuery = `
	SELECT release.id AS id,
	       githubowner.name AS owner,
	       githubrepo.name AS repo,
	       release.version AS version,
	       release.description AS description,
	       release.commit AS commit,
	       release.readme AS readme,
	       release.created_at AS created_at
	FROM release
	INNER JOIN githubrepo ON githubrepo.id = release.repo_id
	INNER JOIN githubowner ON githubowner.id = githubrepo.owner_id
	WHERE release.repo_id = $1
`

// ReleaseStore implements registry.ReleaseStore against PostgreSQL.
type ReleaseStore struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewReleaseStore creates a release store on top of an existing connection
// pool. metrics may be nil.
func NewReleaseStore(db *sql.DB, metrics *observability.Metrics) *ReleaseStore {
	return &ReleaseStore{
		db:      db,
		metrics: metrics,
	}
}

// ListRecent returns the newest releases, creation time descending, capped
// at 100 rows.
func (s *ReleaseStore) ListRecent(ctx context.Context) (_ []registry.Release, err error) {
	defer s.observe("list_recent", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, listRecentQuery)
	if err != nil {
		return nil, s.fail("list_recent", fmt.Errorf("failed to query recent releases: %w", err))
	}
	defer rows.Close()

	releases, err := scanReleases(rows, false)
	if err != nil {
		return nil, s.fail("list_recent", err)
	}
	return releases, nil
}

// ListByIDs hydrates release records for the given identifier set. An empty
// set returns an empty slice without issuing a query.
func (s *ReleaseStore) ListByIDs(ctx context.Context, ids []int64) (_ []registry.Release, err error) {
	if len(ids) == 0 {
		return []registry.Release{}, nil
	}
	defer s.observe("list_by_ids", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, listByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, s.fail("list_by_ids", fmt.Errorf("failed to query releases by id: %w", err))
	}
	defer rows.Close()

	releases, err := scanReleases(rows, false)
	if err != nil {
		return nil, s.fail("list_by_ids", err)
	}
	return releases, nil
}

// ResolveRepoID resolves an (owner, repo) pair to its internal identifier.
// A missing pair is reported via ok=false, not an error.
func (s *ReleaseStore) ResolveRepoID(ctx context.Context, owner, repo string) (_ int64, _ bool, err error) {
	defer s.observe("resolve_repo_id", time.Now(), &err)

	var id int64
	err = s.db.QueryRowContext(ctx, resolveRepoIDQuery, repo, owner).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.fail("resolve_repo_id", fmt.Errorf("failed to resolve repo id: %w", err))
	}
	return id, true, nil
}

// ListByRepoID returns all releases for a repository including the extended
// fields (commit, readme).
func (s *ReleaseStore) ListByRepoID(ctx context.Context, id int64) (_ []registry.Release, err error) {
	defer s.observe("list_by_repo_id", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, listByRepoIDQuery, id)
	if err != nil {
		return nil, s.fail("list_by_repo_id", fmt.Errorf("failed to query repo releases: %w", err))
	}
	defer rows.Close()

	releases, err := scanReleases(rows, true)
	if err != nil {
		return nil, s.fail("list_by_repo_id", err)
	}
	return releases, nil
}

func scanReleases(rows *sql.Rows, extended bool) ([]registry.Release, error) {
	releases := make([]registry.Release, 0)
	for rows.Next() {
		var (
			r           registry.Release
			description sql.NullString
			commit      sql.NullString
			readme      sql.NullString
		)

		var err error
		if extended {
			err = rows.Scan(&r.ID, &r.Owner, &r.Repo, &r.Version, &description, &commit, &readme, &r.CreatedAt)
		} else {
			err = rows.Scan(&r.ID, &r.Owner, &r.Repo, &r.Version, &description, &r.CreatedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan release row: %w", err)
		}

		r.Description = description.String
		r.Commit = commit.String
		r.Readme = readme.String
		releases = append(releases, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate release rows: %w", err)
	}
	return releases, nil
}

func (s *ReleaseStore) observe(op string, start time.Time, errp *error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if *errp != nil {
		status = "error"
	}
	s.metrics.StorageOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	s.metrics.StorageOperationsTotal.WithLabelValues(op, status).Inc()
}

func (s *ReleaseStore) fail(op string, err error) error {
	return &registry.StorageError{Op: op, Err: err}
}
