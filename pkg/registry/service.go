package registry

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("flakestry/registry")

// Service orchestrates the search/list and per-repository request paths.
type Service struct {
	store  ReleaseStore
	search Searcher
}

// NewService creates a registry service backed by the given store and
// searcher. Both handles are long-lived and safe for concurrent use.
func NewService(store ReleaseStore, search Searcher) *Service {
	return &Service{
		store:  store,
		search: search,
	}
}

// QueryResult is the outcome of a listing or search operation. Query echoes
// the original query string and is nil when no query was given.
type QueryResult struct {
	Releases []Release
	Count    int
	Query    *string
}

// Query lists recent releases, or, when a query string is present, searches
// the full-text index, hydrates the hits from the relational store, and
// re-ranks the hydrated records by descending relevance score.
func (s *Service) Query(ctx context.Context, query *string) (*QueryResult, error) {
	ctx, span := tracer.Start(ctx, "registry.Query",
		trace.WithAttributes(attribute.Bool("has_query", query != nil)),
	)
	defer span.End()

	if query == nil {
		releases, err := s.store.ListRecent(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list recent failed")
			return nil, err
		}
		return &QueryResult{Releases: releases, Count: len(releases)}, nil
	}

	hits, err := s.search.SearchFlakes(ctx, *query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("hit_count", len(hits)))

	ids := make([]int64, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}

	// Hydration runs even for zero hits; the store short-circuits an empty
	// identifier set without issuing a query.
	releases, err := s.store.ListByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hydration failed")
		return nil, err
	}

	ranked := rankByScore(releases, hits)
	return &QueryResult{Releases: ranked, Count: len(ranked), Query: query}, nil
}

// RepoReleases resolves an (owner, repo) pair and returns all of its
// releases ordered by version string descending. An unknown pair yields
// ErrRepoNotFound.
func (s *Service) RepoReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	ctx, span := tracer.Start(ctx, "registry.RepoReleases",
		trace.WithAttributes(
			attribute.String("owner", owner),
			attribute.String("repo", repo),
		),
	)
	defer span.End()

	repoID, ok, err := s.store.ResolveRepoID(ctx, owner, repo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return nil, err
	}
	if !ok {
		return nil, ErrRepoNotFound
	}

	releases, err := s.store.ListByRepoID(ctx, repoID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list by repo failed")
		return nil, err
	}

	return sortByVersionDesc(releases), nil
}

// rankByScore joins hydrated releases with the search score map and returns
// a new slice ordered by descending relevance. Neither input is mutated.
// Releases whose identifier is missing from the score map cannot occur in
// practice (the hit set produced the identifier list), but hits that were
// deleted between indexing and hydration are naturally absent from the
// hydrated slice and are dropped. Ties are left in unspecified order.
func rankByScore(releases []Release, scores map[int64]float64) []Release {
	ranked := make([]Release, len(releases))
	copy(ranked, releases)
	sort.Slice(ranked, func(i, j int) bool {
		return scores[ranked[i].ID] > scores[ranked[j].ID]
	})
	return ranked
}

// sortByVersionDesc orders releases by plain lexicographic comparison of the
// version string, descending. This is intentionally not a semantic-version
// sort ("2.0.0" sorts before "10.0.0"); consumers may depend on the current
// ordering. Returns a new slice.
func sortByVersionDesc(releases []Release) []Release {
	sorted := make([]Release, len(releases))
	copy(sorted, releases)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version > sorted[j].Version
	})
	return sorted
}
