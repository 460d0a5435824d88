package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	recent  []Release
	byID    map[int64]Release
	repoIDs map[string]int64
	byRepo  map[int64][]Release

	listRecentErr error
	listByIDsErr  error
	resolveErr    error

	listByIDsCalls [][]int64
}

func (f *fakeStore) ListRecent(ctx context.Context) ([]Release, error) {
	if f.listRecentErr != nil {
		return nil, f.listRecentErr
	}
	return f.recent, nil
}

func (f *fakeStore) ListByIDs(ctx context.Context, ids []int64) ([]Release, error) {
	f.listByIDsCalls = append(f.listByIDsCalls, ids)
	if f.listByIDsErr != nil {
		return nil, f.listByIDsErr
	}
	if len(ids) == 0 {
		return []Release{}, nil
	}
	releases := make([]Release, 0, len(ids))
	for _, id := range ids {
		if r, ok := f.byID[id]; ok {
			releases = append(releases, r)
		}
	}
	return releases, nil
}

func (f *fakeStore) ResolveRepoID(ctx context.Context, owner, repo string) (int64, bool, error) {
	if f.resolveErr != nil {
		return 0, false, f.resolveErr
	}
	id, ok := f.repoIDs[owner+"/"+repo]
	return id, ok, nil
}

func (f *fakeStore) ListByRepoID(ctx context.Context, id int64) ([]Release, error) {
	return f.byRepo[id], nil
}

type fakeSearcher struct {
	hits   map[int64]float64
	err    error
	called bool
}

func (f *fakeSearcher) SearchFlakes(ctx context.Context, query string) (map[int64]float64, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func release(id int64, owner, repo, version string) Release {
	return Release{
		ID:        id,
		Owner:     owner,
		Repo:      repo,
		Version:   version,
		CreatedAt: time.Date(2024, 1, int(id%28)+1, 0, 0, 0, 0, time.UTC),
	}
}

func strptr(s string) *string { return &s }

func TestQueryWithoutQueryListsRecent(t *testing.T) {
	recent := []Release{
		release(3, "acme", "widget", "1.2.0"),
		release(2, "acme", "gadget", "0.9.0"),
		release(1, "nixos", "nixpkgs", "23.11"),
	}
	store := &fakeStore{recent: recent}
	searcher := &fakeSearcher{}
	svc := NewService(store, searcher)

	result, err := svc.Query(context.Background(), nil)
	require.NoError(t, err)

	// Store order is preserved as given and the searcher is never consulted.
	assert.Equal(t, recent, result.Releases)
	assert.Equal(t, 3, result.Count)
	assert.Nil(t, result.Query)
	assert.False(t, searcher.called)
}

func TestQueryRanksByDescendingScore(t *testing.T) {
	store := &fakeStore{
		byID: map[int64]Release{
			1: release(1, "acme", "widget", "1.0.0"),
			2: release(2, "acme", "gadget", "2.0.0"),
			3: release(3, "nixos", "nixpkgs", "23.11"),
		},
	}
	searcher := &fakeSearcher{hits: map[int64]float64{
		1: 0.5,
		2: 9.1,
		3: 3.2,
	}}
	svc := NewService(store, searcher)

	result, err := svc.Query(context.Background(), strptr("widget"))
	require.NoError(t, err)

	require.Len(t, result.Releases, 3)
	assert.Equal(t, int64(2), result.Releases[0].ID)
	assert.Equal(t, int64(3), result.Releases[1].ID)
	assert.Equal(t, int64(1), result.Releases[2].ID)
	assert.Equal(t, 3, result.Count)
	require.NotNil(t, result.Query)
	assert.Equal(t, "widget", *result.Query)
}

func TestQueryZeroHitsShortCircuits(t *testing.T) {
	store := &fakeStore{}
	searcher := &fakeSearcher{hits: map[int64]float64{}}
	svc := NewService(store, searcher)

	result, err := svc.Query(context.Background(), strptr("nothing matches this"))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Count)
	assert.Empty(t, result.Releases)
	assert.NotNil(t, result.Releases)

	// Hydration still executes but never with a non-empty identifier set.
	require.Len(t, store.listByIDsCalls, 1)
	assert.Empty(t, store.listByIDsCalls[0])
}

func TestQueryDropsHitsDeletedFromStore(t *testing.T) {
	store := &fakeStore{
		byID: map[int64]Release{
			1: release(1, "acme", "widget", "1.0.0"),
		},
	}
	searcher := &fakeSearcher{hits: map[int64]float64{
		1:  2.0,
		99: 8.0, // indexed but deleted from the relational store
	}}
	svc := NewService(store, searcher)

	result, err := svc.Query(context.Background(), strptr("widget"))
	require.NoError(t, err)

	require.Len(t, result.Releases, 1)
	assert.Equal(t, int64(1), result.Releases[0].ID)
	assert.Equal(t, 1, result.Count)
}

func TestQuerySearchFailure(t *testing.T) {
	searchErr := &ExternalServiceError{Service: "opensearch", Err: errors.New("connection refused")}
	store := &fakeStore{}
	searcher := &fakeSearcher{err: searchErr}
	svc := NewService(store, searcher)

	_, err := svc.Query(context.Background(), strptr("x"))
	require.Error(t, err)

	var extErr *ExternalServiceError
	assert.ErrorAs(t, err, &extErr)
	assert.Empty(t, store.listByIDsCalls, "hydration must not run after a search failure")
}

func TestQueryHydrationFailureAfterSearch(t *testing.T) {
	storeErr := &StorageError{Op: "list_by_ids", Err: errors.New("pool exhausted")}
	store := &fakeStore{listByIDsErr: storeErr}
	searcher := &fakeSearcher{hits: map[int64]float64{1: 1.0}}
	svc := NewService(store, searcher)

	_, err := svc.Query(context.Background(), strptr("x"))
	require.Error(t, err)

	var stErr *StorageError
	assert.ErrorAs(t, err, &stErr)
	assert.True(t, searcher.called, "search must have completed before the hydration failure")
}

func TestRepoReleasesSortsVersionsLexicographically(t *testing.T) {
	store := &fakeStore{
		repoIDs: map[string]int64{"acme/widget": 7},
		byRepo: map[int64][]Release{
			7: {
				release(1, "acme", "widget", "2.0.0"),
				release(2, "acme", "widget", "10.0.0"),
				release(3, "acme", "widget", "3.1.4"),
			},
		},
	}
	svc := NewService(store, &fakeSearcher{})

	releases, err := svc.RepoReleases(context.Background(), "acme", "widget")
	require.NoError(t, err)

	// Plain string comparison: "2.0.0" sorts before "10.0.0".
	require.Len(t, releases, 3)
	assert.Equal(t, "3.1.4", releases[0].Version)
	assert.Equal(t, "2.0.0", releases[1].Version)
	assert.Equal(t, "10.0.0", releases[2].Version)
}

func TestRepoReleasesUnknownRepo(t *testing.T) {
	store := &fakeStore{repoIDs: map[string]int64{}}
	svc := NewService(store, &fakeSearcher{})

	_, err := svc.RepoReleases(context.Background(), "nobody", "nothing")
	assert.ErrorIs(t, err, ErrRepoNotFound)
}

func TestRepoReleasesResolveFailure(t *testing.T) {
	storeErr := &StorageError{Op: "resolve_repo_id", Err: errors.New("connection reset")}
	store := &fakeStore{resolveErr: storeErr}
	svc := NewService(store, &fakeSearcher{})

	_, err := svc.RepoReleases(context.Background(), "acme", "widget")
	var stErr *StorageError
	assert.ErrorAs(t, err, &stErr)
}

func TestRankByScoreDoesNotMutateInputs(t *testing.T) {
	releases := []Release{
		release(1, "a", "a", "1"),
		release(2, "b", "b", "2"),
	}
	scores := map[int64]float64{1: 1.0, 2: 2.0}

	ranked := rankByScore(releases, scores)

	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Equal(t, int64(1), releases[0].ID, "input slice must keep its order")
	assert.Len(t, scores, 2)
}
