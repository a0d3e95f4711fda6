package driven

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// Connector reads raw documents from a local corpus location.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the corpus location exists and is readable.
	Validate(ctx context.Context) error

	// FullSync reads every supported document under the root.
	// Both channels are closed when the walk completes.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch emits changes under the root until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
