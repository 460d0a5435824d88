package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/flakestry/pkg/observability"
	"github.com/platinummonkey/flakestry/pkg/registry"
)

var searchTracer = otel.Tracer("flakestry/search")

const (
	// serviceName labels search faults in errors and metrics.
	serviceName = "opensearch"

	// maxHits bounds every search to at most 10 hits.
	maxHits = 10
)

// NewClient creates an OpenSearch client for the given endpoint. The client
// is a long-lived process-wide handle, safe for concurrent use.
func NewClient(url string) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}
	return client, nil
}

// Service is the search accessor over the flake release document index.
type Service struct {
	client  *opensearch.Client
	index   string
	metrics *observability.Metrics
}

// NewService creates a search service over the given index. metrics may be
// nil.
func NewService(client *opensearch.Client, index string, metrics *observability.Metrics) *Service {
	return &Service{
		client:  client,
		index:   index,
		metrics: metrics,
	}
}

// EnsureIndex creates the release index if it does not exist yet. It is an
// idempotent startup step: an existing index is left untouched.
func (s *Service) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists(
		[]string{s.index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return &registry.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("failed to check index %q: %w", s.index, err),
		}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		return nil
	}

	createRes, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return &registry.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("failed to create index %q: %w", s.index, err),
		}
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return &registry.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("failed to create index %q: %s", s.index, createRes.Status()),
		}
	}
	return nil
}

// Ping checks connectivity to the search engine.
func (s *Service) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opensearch unreachable: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("opensearch ping failed: %s", res.Status())
	}
	return nil
}

// searchResponse mirrors the slice of the engine response this service
// consumes. Pointer fields distinguish absent values from zero values so a
// malformed response fails at the decoding boundary.
type searchResponse struct {
	Hits *struct {
		Hits *[]searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	ID    *string  `json:"_id"`
	Score *float64 `json:"_score"`
}

// SearchFlakes issues a fuzzy multi-field match for the query string and
// returns release identifiers mapped to relevance scores, bounded to at most
// 10 hits. Any connectivity fault or shape violation in the engine response
// is a registry.ExternalServiceError.
func (s *Service) SearchFlakes(ctx context.Context, query string) (_ map[int64]float64, err error) {
	ctx, span := searchTracer.Start(ctx, "search.SearchFlakes",
		trace.WithAttributes(attribute.String("index", s.index)),
	)
	defer span.End()
	defer s.observe(time.Now(), &err)

	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fuzziness": "AUTO",
				"fields": []string{
					"description^2",
					"readme",
					"outputs",
					"repo^2",
					"owner^2",
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithSize(maxHits),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to send search request: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, s.fail(span, fmt.Errorf("search request failed: %s", res.Status()))
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to decode search response: %w", err))
	}
	if decoded.Hits == nil || decoded.Hits.Hits == nil {
		return nil, s.fail(span, fmt.Errorf("search response missing hits array"))
	}

	hits := make(map[int64]float64, len(*decoded.Hits.Hits))
	for _, hit := range *decoded.Hits.Hits {
		if hit.ID == nil {
			return nil, s.fail(span, fmt.Errorf("search hit missing _id"))
		}
		if hit.Score == nil {
			return nil, s.fail(span, fmt.Errorf("search hit missing _score"))
		}
		id, err := strconv.ParseInt(*hit.ID, 10, 64)
		if err != nil {
			return nil, s.fail(span, fmt.Errorf("failed to parse hit _id %q: %w", *hit.ID, err))
		}
		hits[id] = *hit.Score
	}

	span.SetAttributes(attribute.Int("hit_count", len(hits)))
	return hits, nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return &registry.ExternalServiceError{Service: serviceName, Err: err}
}

func (s *Service) observe(start time.Time, errp *error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if *errp != nil {
		status = "error"
	}
	s.metrics.SearchRequestDuration.Observe(time.Since(start).Seconds())
	s.metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
}
