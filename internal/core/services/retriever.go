package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/codex-cli/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// DefaultOversample multiplies k for the raw index search so the score
// floor and deduplication still leave k usable results.
const DefaultOversample = 3

// Retriever embeds a query, searches the index and filters the hits.
type Retriever struct {
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	metrics    driven.Metrics
	oversample int
	dedupe     domain.DedupePolicy
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithOversample sets the search oversampling factor (minimum 1).
func WithOversample(n int) RetrieverOption {
	return func(r *Retriever) {
		if n >= 1 {
			r.oversample = n
		}
	}
}

// WithDedupe sets the per-document deduplication policy.
func WithDedupe(p domain.DedupePolicy) RetrieverOption {
	return func(r *Retriever) {
		r.dedupe = p
	}
}

// WithRetrievalMetrics records retrieval latency.
func WithRetrievalMetrics(m driven.Metrics) RetrieverOption {
	return func(r *Retriever) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewRetriever creates a retriever over an index built with embedder.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:   embedder,
		index:      index,
		metrics:    nopMetrics{},
		oversample: DefaultOversample,
		dedupe:     domain.DedupePolicy{Mode: domain.DedupeAll},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most k chunks scoring at least minScore.
// An empty result is a valid outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, minScore float64) (domain.RetrievalResult, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 || r.index.Size() == 0 {
		return domain.RetrievalResult{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return nil, err
	}

	hits, err := r.index.Search(ctx, vec, k*r.oversample)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Retrieve: %d raw hits for k=%d (oversample %d)", len(hits), k, r.oversample)

	limit := r.dedupe.Limit()
	perDoc := make(map[string]int)
	result := make(domain.RetrievalResult, 0, k)
	for _, hit := range hits {
		if hit.Score < minScore {
			// Hits are sorted, nothing after this clears the floor.
			break
		}
		entry, err := r.index.Entry(hit.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		docID := entry.Chunk.DocumentID
		if limit > 0 && perDoc[docID] >= limit {
			continue
		}
		perDoc[docID]++
		result = append(result, domain.RetrievedChunk{
			Chunk:  entry.Chunk,
			Score:  hit.Score,
			Source: entry.Source,
		})
		if len(result) == k {
			break
		}
	}

	r.metrics.ObserveRetrieval(time.Since(start), len(result))
	logger.Debug("Retrieve: %d chunks above %.2f (dedupe %s)", len(result), minScore, r.dedupe)
	return result, nil
}
