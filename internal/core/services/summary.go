package services

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// summaryExcerpt is the number of runes of chunk content kept in the summary.
const summaryExcerpt = 500

type documentSummary struct {
	Metadata    map[string]any `json:"metadata"`
	TotalChunks int            `json:"total_chunks"`
	Chunks      []chunkSummary `json:"chunks"`
}

type chunkSummary struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// writeSummary writes a human-readable JSON listing of every registered
// document and its chunks to path.
func writeSummary(ctx context.Context, docs driven.DocumentStore, path string) error {
	list, err := docs.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	out := make([]documentSummary, 0, len(list))
	for i := range list {
		chunks, err := docs.GetChunks(ctx, list[i].ID)
		if err != nil {
			return fmt.Errorf("chunks for %s: %w", list[i].URI, err)
		}
		s := documentSummary{
			Metadata:    summaryMetadata(&list[i]),
			TotalChunks: len(chunks),
			Chunks:      make([]chunkSummary, len(chunks)),
		}
		for j := range chunks {
			s.Chunks[j] = chunkSummary{
				Content:  excerpt(chunks[j].Content, summaryExcerpt),
				Metadata: chunks[j].Metadata,
			}
		}
		out = append(out, s)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return writeFileAtomic(path, data)
}

// summaryMetadata is the document metadata plus its identity fields.
func summaryMetadata(doc *domain.Document) map[string]any {
	meta := make(map[string]any, len(doc.Metadata)+4)
	maps.Copy(meta, doc.Metadata)
	meta["id"] = doc.ID
	meta["source"] = doc.URI
	meta["title"] = doc.Title
	meta["format"] = string(doc.Format)
	return meta
}

// writeFileAtomic writes data to a temp file beside path, then renames it.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
