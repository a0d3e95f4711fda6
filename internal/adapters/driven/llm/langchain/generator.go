// Package langchain provides a Generator adapter for OpenAI-compatible
// local inference servers (LM Studio, llama.cpp server, vLLM) via langchaingo.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/codex-cli/internal/adapters/driven/llm"
	"github.com/custodia-labs/codex-cli/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:1234/v1"
	DefaultModel   = "local-model"
	DefaultTimeout = 120 * time.Second

	// placeholderToken satisfies the client; local servers ignore it.
	placeholderToken = "lm-studio"
)

const provider = "lmstudio"

// Config holds configuration for the generator.
type Config struct {
	// BaseURL is the server's OpenAI-compatible API root (default: http://localhost:1234/v1).
	BaseURL string

	// Model is the loaded model identifier.
	Model string

	// APIKey is sent as the bearer token when the server requires one.
	APIKey string

	// Timeout bounds Ping requests (default: 120s).
	Timeout time.Duration
}

// Generator produces answers through a langchaingo model.
type Generator struct {
	model   llms.Model
	client  *http.Client
	limiter *ratelimit.Limiter
	baseURL string
	name    string
}

// New creates a generator backed by langchaingo's OpenAI client.
func New(cfg Config) (*Generator, error) {
	cfg = withDefaults(cfg)

	token := cfg.APIKey
	if token == "" {
		token = placeholderToken
	}
	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}
	return NewWithModel(cfg, model), nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(cfg Config, model llms.Model) *Generator {
	cfg = withDefaults(cfg)
	return &Generator{
		model:   model,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.New(provider),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		name:    cfg.Model,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// Generate produces a completion for a single user message.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", llm.Unavailable(provider, err)
	}

	var callOpts []llms.CallOption
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	if len(opts.StopWords) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(opts.StopWords))
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := g.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", llm.Unavailable(provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", llm.Unavailable(provider, errors.New("no choices returned"))
	}
	return llm.Clean(provider, resp.Choices[0].Content)
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.name
}

// Ping checks the server lists its models.
func (g *Generator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("lmstudio: failed to create ping request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return llm.Unavailable(provider, fmt.Errorf("ping failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llm.Unavailable(provider, fmt.Errorf("API returned status %d", resp.StatusCode))
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
