// Package cached provides an LRU caching decorator for embedding services.
package cached

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService caches vectors from an inner service keyed by text.
// Cached vectors are copied on the way in and out so callers cannot
// mutate shared state.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache *lru.Cache[string, []float32]
}

// New wraps inner with an LRU cache holding up to size vectors.
func New(inner driven.EmbeddingService, size int) (*EmbeddingService, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: cached embedder requires an inner service", domain.ErrInvalidInput)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: cache size must be greater than zero", domain.ErrInvalidInput)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return &EmbeddingService{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, computing it on a miss.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.cache.Get(text); ok {
		return clone(v), nil
	}
	v, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Add(text, clone(v))
	return v, nil
}

// EmbedBatch embeds only the distinct texts missing from the cache.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missing := make(map[string][]int)
	var order []string

	for i, text := range texts {
		if v, ok := s.cache.Get(text); ok {
			results[i] = clone(v)
			continue
		}
		if _, seen := missing[text]; !seen {
			order = append(order, text)
		}
		missing[text] = append(missing[text], i)
	}
	if len(order) == 0 {
		return results, nil
	}

	embedded, err := s.inner.EmbedBatch(ctx, order)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(order) {
		return nil, fmt.Errorf("%w: received %d embeddings for %d texts",
			domain.ErrEmbeddingUnavailable, len(embedded), len(order))
	}

	for i, text := range order {
		for _, idx := range missing[text] {
			results[idx] = clone(embedded[i])
		}
		s.cache.Add(text, clone(embedded[i]))
	}
	return results, nil
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	return s.cache.Len()
}

// Purge empties the cache.
func (s *EmbeddingService) Purge() {
	s.cache.Purge()
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close purges the cache and closes the inner service.
func (s *EmbeddingService) Close() error {
	s.cache.Purge()
	return s.inner.Close()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
