// Package ai provides factory functions for creating AI service adapters.
//
// Fallback is a construction-time policy: the factory decides which
// capabilities the core is wired with, and the core never inspects
// provider settings or environment variables itself.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/codex-cli/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/codex-cli/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/codex-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/codex-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/codex-cli/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/codex-cli/internal/adapters/driven/llm/langchain"
	ollamallm "github.com/custodia-labs/codex-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/codex-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/codex-cli/internal/adapters/driven/llm/template"
	"github.com/custodia-labs/codex-cli/internal/adapters/driven/vectorindex"
	chromemindex "github.com/custodia-labs/codex-cli/internal/adapters/driven/vectorindex/chromem"
	memoryindex "github.com/custodia-labs/codex-cli/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// settingsHint is appended to configuration errors.
const settingsHint = "Run 'codex settings' to fix"

// InitResult contains the capabilities the core is wired with.
type InitResult struct {
	// EmbeddingService embeds chunks and queries.
	EmbeddingService driven.EmbeddingService

	// Generator is the primary generation capability.
	Generator driven.Generator

	// Fallback answers when Generator fails. It is always deterministic.
	Fallback driven.Generator

	// VectorIndex is configured with the embedder's dimension and model.
	VectorIndex driven.VectorIndex

	// Warnings lists non-fatal issues found while wiring.
	Warnings []string

	// FellBack is true if the offline embedder replaced an unreachable one.
	FellBack bool
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.Generator != nil {
		r.Generator.Close()
	}
	if r.Fallback != nil {
		r.Fallback.Close()
	}
}

// Initialise builds every capability from settings.
//
// An unreachable embedding service is replaced by the offline embedder only
// when settings.Embedding.Fallback is AIProviderOffline; otherwise it is kept
// and its errors surface at use. An unreachable generator is kept: the
// orchestrator falls back per request.
func Initialise(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}
	result := &InitResult{Fallback: template.New()}

	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured. %s",
			domain.ErrInvalidInput, settings.Embedding.Provider, settingsHint)
	}
	if err := ping(ctx, embedder.Ping); err != nil {
		if settings.Embedding.Fallback == domain.AIProviderOffline && settings.Embedding.Provider != domain.AIProviderOffline {
			embedder.Close()
			embedder, err = hashing.NewEmbeddingService(settings.Embedding.Dimensions)
			if err != nil {
				return nil, err
			}
			result.FellBack = true
			result.addWarning("embedding service unreachable, using offline embedder %s", embedder.ModelName())
		} else {
			result.addWarning("embedding service unreachable: %v", err)
		}
	}
	if settings.Embedding.CacheSize > 0 {
		wrapped, err := cached.New(embedder, settings.Embedding.CacheSize)
		if err != nil {
			embedder.Close()
			return nil, err
		}
		result.EmbeddingService = wrapped
	} else {
		result.EmbeddingService = embedder
	}

	generator, err := CreateGenerator(&settings.LLM)
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrGenerationUnavailable, err, settingsHint)
	}
	if generator == nil {
		result.addWarning("generation provider %q is not configured, answers use templates", settings.LLM.Provider)
		generator = result.Fallback
	} else if err := ping(ctx, generator.Ping); err != nil {
		result.addWarning("generation service unreachable: %v", err)
	}
	result.Generator = generator

	index, err := CreateVectorIndex(&settings.Index, result.EmbeddingService)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.VectorIndex = index

	return result, nil
}

func (r *InitResult) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
// This is intended for use by the settings command to validate credentials on configuration.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	return ping(context.Background(), svc.Ping)
}

// ValidateLLMConfig validates a generation configuration by creating a service and pinging it.
// This is intended for use by the settings command to validate credentials on configuration.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateGenerator(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	return ping(context.Background(), svc.Ping)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama, openai or offline")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderOffline:
		return hashing.NewEmbeddingService(settings.Dimensions)

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateGenerator creates the appropriate generator based on settings.
// Returns nil if the provider is not configured.
func CreateGenerator(settings *domain.LLMSettings) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	case domain.AIProviderLMStudio:
		return createLMStudioLLM(settings)

	case domain.AIProviderOffline:
		return template.New(), nil

	default:
		return nil, fmt.Errorf("%w: generation provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateVectorIndex creates the configured index backend, fixed to the
// embedder's dimension and model so a mismatching persisted index is refused.
func CreateVectorIndex(settings *domain.IndexSettings, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	var opts []vectorindex.Option
	if embedder != nil {
		opts = append(opts,
			vectorindex.WithDimension(embedder.Dimensions()),
			vectorindex.WithModel(embedder.ModelName()),
		)
	}

	backend := domain.IndexBackendMemory
	if settings != nil && settings.Backend != "" {
		backend = settings.Backend
	}

	switch backend {
	case domain.IndexBackendMemory:
		return memoryindex.New(opts...), nil
	case domain.IndexBackendChromem:
		return chromemindex.New(opts...)
	default:
		return nil, fmt.Errorf("%w: index backend %s", domain.ErrUnsupportedType, backend)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: embeddingDimensions(settings),
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: embeddingDimensions(settings),
	})
}

// embeddingDimensions prefers the known size of the model over the configured one.
func embeddingDimensions(settings *domain.EmbeddingSettings) int {
	if d, ok := domain.EmbeddingDimensions()[settings.Model]; ok {
		return d
	}
	if settings.Model == "" {
		return 0
	}
	return settings.Dimensions
}

// createOllamaLLM creates an Ollama generator.
func createOllamaLLM(settings *domain.LLMSettings) driven.Generator {
	return ollamallm.New(ollamallm.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI generator.
func createOpenAILLM(settings *domain.LLMSettings) (driven.Generator, error) {
	return openaillm.New(openaillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicLLM creates an Anthropic generator.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.Generator, error) {
	return anthropicllm.New(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createLMStudioLLM creates a generator for a local OpenAI-compatible server.
func createLMStudioLLM(settings *domain.LLMSettings) (driven.Generator, error) {
	return langchain.New(langchain.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		APIKey:  settings.APIKey,
	})
}
