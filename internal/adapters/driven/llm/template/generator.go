// Package template provides the deterministic fallback Generator.
//
// It never calls a model: answers are assembled from the context chunks
// passed in GenerateOptions, so they can only repeat what the corpus says.
package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// ModelName is reported for answers produced by this generator.
const ModelName = "template"

// DefaultExcerptLength is the number of runes quoted from each chunk.
const DefaultExcerptLength = 100

// maxFacts is the number of bullets in fast facts answers.
const maxFacts = 3

// NoInformation is returned when there is no context to answer from.
const NoInformation = "I don't have enough information to answer that question accurately. " +
	"Please ask me something more specific about my documented experience."

// Generator builds answers from retrieved chunk text using a per-mode template.
type Generator struct {
	excerptLength int
}

// Option configures the generator.
type Option func(*Generator)

// WithExcerptLength sets how many runes of each chunk are quoted.
func WithExcerptLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.excerptLength = n
		}
	}
}

// New creates a template generator.
func New(opts ...Option) *Generator {
	g := &Generator{excerptLength: DefaultExcerptLength}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate ignores the prompt and answers from opts.Context only.
func (g *Generator) Generate(ctx context.Context, _ string, opts driven.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	excerpts := g.excerpts(opts.Context)
	if len(excerpts) == 0 {
		return NoInformation, nil
	}

	switch opts.Mode {
	case domain.ModeNarrative:
		return fmt.Sprintf("From my personal experience, I remember %s", excerpts[0]), nil
	case domain.ModeFastFacts:
		var b strings.Builder
		b.WriteString("Key points about this:")
		for i, e := range excerpts {
			if i == maxFacts {
				break
			}
			b.WriteString("\n• ")
			b.WriteString(e)
		}
		return b.String(), nil
	default:
		return fmt.Sprintf("Based on my experience, I can tell you that %s", excerpts[0]), nil
	}
}

// excerpts returns one trimmed excerpt per non-blank chunk, in input order.
func (g *Generator) excerpts(chunks []domain.RetrievedChunk) []string {
	out := make([]string, 0, len(chunks))
	for i := range chunks {
		text := strings.Join(strings.Fields(chunks[i].Chunk.Content), " ")
		if text == "" {
			continue
		}
		out = append(out, truncate(text, g.excerptLength))
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " ") + "..."
}

// ModelName returns the generator identifier.
func (g *Generator) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (g *Generator) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
