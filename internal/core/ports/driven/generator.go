package driven

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// Generator produces answer text from an assembled prompt.
// The language model is an external capability behind this interface.
//
// Implementations may include:
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
//   - LM Studio (local inference server)
//   - Template (deterministic fallback built from context chunks only)
type Generator interface {
	// Generate produces text completion from a prompt.
	// Failures wrap domain.ErrGenerationUnavailable.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string

	// Mode is the response style the prompt was built for.
	Mode domain.Mode

	// Context holds the chunks included in the prompt, highest score first.
	// Remote generators ignore it; the template generator answers from it.
	Context []domain.RetrievedChunk
}
