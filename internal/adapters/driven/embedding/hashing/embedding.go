// Package hashing provides a deterministic offline embedding service.
//
// Text is tokenised, stopwords removed and tokens lightly stemmed; each
// token is hashed with FNV-1a into one of Dimensions signed buckets and
// weighted by sublinear term frequency. The result is a lexical
// bag-of-words vector: texts sharing content words score higher under
// cosine similarity. It needs no network and no model files.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/codex-cli/internal/adapters/driven/embedding"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default vector size.
const DefaultDimensions = 384

// EmbeddingService generates hashed bag-of-words embeddings.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder with the given dimensions.
// Zero uses DefaultDimensions.
func NewEmbeddingService(dimensions int) (*EmbeddingService, error) {
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}
	if dimensions < 8 {
		return nil, fmt.Errorf("%w: hashing dimensions must be at least 8, got %d", domain.ErrInvalidInput, dimensions)
	}
	return &EmbeddingService{dimensions: dimensions}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model identifier, which encodes the dimensions.
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("hashing-v1-%d", s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	terms := Terms(text)
	if len(terms) == 0 {
		// Only stopwords or punctuation; fall back to the raw tokens so
		// distinct inputs still get distinct vectors.
		terms = tokenize(text)
	}
	if len(terms) == 0 {
		terms = []string{strings.TrimSpace(text)}
	}

	// Terms are summed in first-occurrence order; float addition is not
	// associative, and map order would make the output vary between calls.
	counts := make(map[string]int, len(terms))
	order := make([]string, 0, len(terms))
	for _, t := range terms {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	v := make([]float32, s.dimensions)
	for _, term := range order {
		bucket, sign := s.hash(term)
		v[bucket] += sign * float32(1+math.Log(float64(counts[term])))
	}

	if err := embedding.Normalize(v); err != nil {
		// Every term landed in buckets that cancelled out. Use the first
		// term's bucket so the vector stays unit length.
		bucket, _ := s.hash(terms[0])
		v[bucket] = 1
	}
	return v
}

// hash maps a term to a bucket and a sign. The sign comes from a bit the
// bucket index does not use, so collisions tend to cancel rather than add.
func (s *EmbeddingService) hash(term string) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(term))
	sum := h.Sum64()

	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		return bucket, -1
	}
	return bucket, 1
}

// Terms returns the stemmed content words of text, in order.
func Terms(text string) []string {
	tokens := tokenize(text)
	out := tokens[:0]
	for _, t := range tokens {
		if stopwords[t] {
			continue
		}
		out = append(out, stem(t))
	}
	return out
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "+#")
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// stem strips common English inflections. It is intentionally light:
// "languages" and "language" meet, "running" and "runs" do not.
func stem(word string) string {
	n := len([]rune(word))
	switch {
	case n > 4 && strings.HasSuffix(word, "ies"):
		return strings.TrimSuffix(word, "ies") + "y"
	case n > 5 && strings.HasSuffix(word, "ing"):
		return strings.TrimSuffix(word, "ing")
	case n > 4 && strings.HasSuffix(word, "ed"):
		return strings.TrimSuffix(word, "ed")
	case n > 3 && strings.HasSuffix(word, "es") && !strings.HasSuffix(word, "ses"):
		return strings.TrimSuffix(word, "s")
	case n > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return strings.TrimSuffix(word, "s")
	default:
		return word
	}
}

var stopwords = func() map[string]bool {
	words := strings.Fields(`
		a about above after again against all am an and any are as at
		be because been before being below between both but by
		can could did do does doing down during each few for from further
		had has have having he her here hers herself him himself his how
		i if in into is it its itself just me more most my myself
		no nor not now of off on once only or other our ours ourselves out over own
		same she should so some such than that the their theirs them themselves then
		there these they this those through to too under until up very
		was we were what when where which while who whom why will with would
		you your yours yourself yourselves tell me please`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
