package driving

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// RetrievalService finds the chunks most relevant to a query.
type RetrievalService interface {
	// Retrieve returns at most k chunks scoring at least minScore,
	// highest score first. An empty result is not an error.
	Retrieve(ctx context.Context, query string, k int, minScore float64) (domain.RetrievalResult, error)
}
