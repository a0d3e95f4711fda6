// Package document builds normalised documents for the format normalisers.
package document

import (
	"maps"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// New builds a document from a raw document and its extracted text.
// The raw metadata is copied and annotated with the MIME type and format.
func New(raw *domain.RawDocument, format domain.Format, title, content string) domain.Document {
	metadata := make(map[string]any, len(raw.Metadata)+2)
	maps.Copy(metadata, raw.Metadata)
	metadata["mime_type"] = format.MIMEType()
	metadata["filename"] = filepath.Base(raw.URI)

	return domain.Document{
		ID:        uuid.New().String(),
		URI:       raw.URI,
		Title:     title,
		Content:   content,
		Format:    format,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// Title returns the title supplied in raw metadata, else one derived from the URI.
func Title(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata["title"].(string); ok && title != "" {
		return title
	}
	return TitleFromURI(raw.URI)
}

// TitleFromURI derives a human-readable title from a file name.
func TitleFromURI(uri string) string {
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
