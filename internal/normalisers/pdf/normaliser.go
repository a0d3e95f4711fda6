// Package pdf extracts text from PDF documents with ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/normalisers/document"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page, one paragraph per page.
// A PDF with no extractable text (e.g. scanned images) fails with ErrParse.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (doc *driven.NormaliseResult, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %s: malformed pdf: %v", domain.ErrParse, raw.URI, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, raw.URI, err)
	}

	pages := reader.NumPage()
	texts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: page %d: %w", domain.ErrParse, raw.URI, i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}

	content := strings.Join(texts, "\n\n")
	if content == "" {
		return nil, fmt.Errorf("%w: %s: no extractable text", domain.ErrParse, raw.URI)
	}

	title := document.Title(raw)
	if first := firstLine(content); first != "" && raw.Metadata["title"] == nil {
		title = first
	}

	result := document.New(raw, domain.FormatPDF, title, content)
	result.Metadata["pages"] = pages

	return &driven.NormaliseResult{Document: result}, nil
}

// firstLine returns the first non-empty line, if it is short enough to be a title.
func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len([]rune(line)) > 100 {
			return ""
		}
		return line
	}
	return ""
}
