package normalisers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects a normaliser by MIME type and priority.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

// Normalise transforms a raw document using the best matching normaliser.
// Undeclared formats are sniffed from the URI extension, then the content.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	format := Detect(raw)
	if format == domain.FormatUnknown {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, raw.URI, domain.ErrUnsupportedType)
	}

	resolved := *raw
	resolved.Format = format
	resolved.MIMEType = format.MIMEType()

	n := r.lookup(resolved.MIMEType)
	if n == nil {
		return nil, fmt.Errorf("%w: %s: no normaliser for %s: %w",
			domain.ErrParse, raw.URI, resolved.MIMEType, domain.ErrUnsupportedType)
	}

	result, err := n.Normalise(ctx, &resolved)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Document.Content) == "" {
		return nil, fmt.Errorf("%w: %s: document has no text", domain.ErrParse, raw.URI)
	}
	return result, nil
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if t == mimeType {
				return n
			}
		}
	}
	return nil
}

// Detect returns the declared format, else the one implied by the URI
// extension, else one sniffed from the content.
func Detect(raw *domain.RawDocument) domain.Format {
	if raw.Format.IsValid() {
		return raw.Format
	}
	if f := domain.FormatFromPath(raw.URI); f != domain.FormatUnknown {
		return f
	}
	return sniff(raw.Content)
}

func sniff(content []byte) domain.Format {
	switch {
	case bytes.HasPrefix(content, []byte("%PDF-")):
		return domain.FormatPDF
	case bytes.HasPrefix(content, []byte("PK\x03\x04")):
		return domain.FormatDOCX
	}

	ct := http.DetectContentType(content)
	switch {
	case strings.HasPrefix(ct, "text/html"):
		return domain.FormatHTML
	case strings.HasPrefix(ct, "text/plain") && utf8.Valid(content):
		return domain.FormatText
	default:
		return domain.FormatUnknown
	}
}
