// Package chunker splits document text into overlapping, boundary-aware chunks.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultBoundaryWindow is how far back from a hard cut the chunker looks
// for a paragraph or sentence break.
const DefaultBoundaryWindow = 100

// Span is a half-open rune range [Start, End) of a text.
type Span struct {
	Start int
	End   int
}

// Processor splits document content into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize      int
	overlap        int
	boundaryWindow int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithBoundaryWindow sets how many characters before a hard cut are searched
// for a natural break. Zero disables boundary search.
func WithBoundaryWindow(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.boundaryWindow = n
		}
	}
}

// New creates a new chunker processor with the given options.
// Invalid sizes are reported by Validate and by Process.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:      DefaultChunkSize,
		overlap:        DefaultChunkOverlap,
		boundaryWindow: DefaultBoundaryWindow,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Validate checks chunk_size > overlap >= 0.
func (p *Processor) Validate() error {
	return validate(p.chunkSize, p.overlap)
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split returns the chunk spans for text.
func (p *Processor) Split(text string) ([]Span, error) {
	return split([]rune(text), p.chunkSize, p.overlap, p.boundaryWindow)
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	runes := []rune(doc.Content)
	spans, err := split(runes, p.chunkSize, p.overlap, p.boundaryWindow)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, s := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Position:   i,
			Content:    string(runes[s.Start:s.End]),
			Start:      s.Start,
			End:        s.End,
			Metadata: map[string]any{
				"chunk_index":  i,
				"total_chunks": len(spans),
			},
		})
	}

	return chunks, nil
}

// Split returns the chunk spans of text with the default boundary window.
func Split(text string, chunkSize, overlap int) ([]Span, error) {
	return split([]rune(text), chunkSize, overlap, DefaultBoundaryWindow)
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidInput, chunkSize, overlap)
	}
	return nil
}

func split(runes []rune, chunkSize, overlap, window int) ([]Span, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(runes)) == "" {
		return nil, nil
	}

	n := len(runes)
	spans := make([]Span, 0, n/(chunkSize-overlap)+1)

	start := 0
	for {
		end := start + chunkSize
		if end >= n {
			spans = append(spans, Span{Start: start, End: n})
			return spans, nil
		}

		// A cut at or before start+overlap would not advance the next start.
		lo := max(end-window, start+overlap+1)
		if cut := boundary(runes, lo, end); cut > 0 {
			end = cut
		}
		spans = append(spans, Span{Start: start, End: end})

		start = end - overlap
	}
}

// boundary returns the end offset of the latest paragraph break in
// runes[lo:end], else of the latest sentence end, else 0.
func boundary(runes []rune, lo, end int) int {
	if lo >= end {
		return 0
	}
	for i := end - 2; i >= max(lo-2, 0); i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}
	for i := end - 1; i >= max(lo-1, 0); i-- {
		if isSentenceEnd(runes, i) {
			return i + 1
		}
	}
	return 0
}

func isSentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?', '\n':
	default:
		return false
	}
	return i+1 == len(runes) || unicode.IsSpace(runes[i+1])
}
