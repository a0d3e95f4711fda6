package driving

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// IngestService turns raw documents into indexed chunks.
type IngestService interface {
	// Ingest normalises, chunks, embeds and indexes each document.
	// format applies to every document; domain.FormatUnknown sniffs per document.
	// Failures are reported per document and never abort the batch.
	Ingest(ctx context.Context, docs map[string][]byte, format domain.Format) domain.IngestReport

	// IngestDirectory ingests every supported file under dir.
	IngestDirectory(ctx context.Context, dir string) (domain.IngestReport, error)

	// Watch re-ingests files under dir as they change until ctx is cancelled.
	// onReport is called after each batch of changes.
	Watch(ctx context.Context, dir string, onReport func(domain.IngestReport)) error
}
