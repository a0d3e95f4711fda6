package embedding

import (
	"fmt"
	"math"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// Normalize scales v to unit length in place.
// A zero vector cannot be normalised and yields ErrEmbeddingUnavailable.
func Normalize(v []float32) error {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return fmt.Errorf("%w: service returned a degenerate vector", domain.ErrEmbeddingUnavailable)
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return nil
}

// FromFloat64 converts an API vector to a normalised float32 vector.
func FromFloat64(in []float64) ([]float32, error) {
	out := make([]float32, len(in))
	for i, x := range in {
		out[i] = float32(x)
	}
	if err := Normalize(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Unavailable wraps a transport or API error as ErrEmbeddingUnavailable.
func Unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingUnavailable, provider, err)
}
