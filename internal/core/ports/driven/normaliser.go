package driven

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// Normaliser extracts plain text from raw document bytes.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms a raw document into a document.
	// Malformed input fails with an error wrapping domain.ErrParse.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Note: Normalisation only produces a Document with Content.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the normalised document with Content field populated.
	Document domain.Document
}

// NormaliserRegistry selects a normaliser by the raw document's MIME type.
type NormaliserRegistry interface {
	// Register adds a normaliser. Higher priority wins per MIME type.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns every MIME type with a registered normaliser.
	SupportedMIMETypes() []string

	// Normalise detects the format of raw and dispatches to its normaliser.
	// Unsupported formats fail with an error wrapping domain.ErrUnsupportedType.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}
