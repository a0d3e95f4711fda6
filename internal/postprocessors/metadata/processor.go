// Package metadata copies document-level metadata onto each chunk.
package metadata

import (
	"context"
	"maps"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// Processor stamps each chunk with its parent document's metadata.
// Chunk-specific keys win over document keys of the same name.
type Processor struct{}

// New creates a metadata processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "metadata"
}

// Process merges document metadata into every chunk.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		merged := make(map[string]any, len(doc.Metadata)+len(chunks[i].Metadata)+3)
		maps.Copy(merged, doc.Metadata)
		merged["source"] = doc.URI
		merged["title"] = doc.Title
		merged["format"] = doc.Format.String()
		maps.Copy(merged, chunks[i].Metadata)
		chunks[i].Metadata = merged
	}
	return chunks, nil
}
