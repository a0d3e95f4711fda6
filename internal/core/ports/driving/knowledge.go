package driving

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// KnowledgeBaseService manages the indexed corpus as a whole.
type KnowledgeBaseService interface {
	// Info describes the index and document registry.
	Info(ctx context.Context) (domain.IndexInfo, error)

	// Documents lists the ingested documents.
	Documents(ctx context.Context) ([]domain.Document, error)

	// Save persists the index to path. An empty path uses the configured one.
	Save(ctx context.Context, path string) error

	// Load replaces the index with the one persisted at path.
	// An empty path uses the configured one.
	Load(ctx context.Context, path string) error

	// Clear removes every indexed entry and registered document.
	Clear(ctx context.Context) error
}
