package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLMStudio is a local OpenAI-compatible inference server.
	AIProviderLMStudio AIProvider = "lmstudio"

	// AIProviderOffline is the deterministic in-process implementation.
	AIProviderOffline AIProvider = "offline"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLMStudio, AIProviderOffline:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLMStudio || p == AIProviderOffline
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderLMStudio:
		return "LM Studio (local)"
	case AIProviderOffline:
		return "Offline (deterministic)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the vector size (offline provider and unknown models).
	Dimensions int

	// Fallback is the provider substituted when Provider is unreachable.
	// Only AIProviderOffline or empty (no fallback) are accepted.
	Fallback AIProvider

	// CacheSize is the number of query embeddings kept in memory (0 disables).
	CacheSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature controls randomness.
	Temperature float64
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexBackend identifies a vector index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendMemory is the exact brute-force in-memory index.
	IndexBackendMemory IndexBackend = "memory"

	// IndexBackendChromem is the chromem-go collection index.
	IndexBackendChromem IndexBackend = "chromem"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendMemory || b == IndexBackendChromem
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Backend is the index implementation.
	Backend IndexBackend

	// Path is where the index is persisted. Empty disables persistence.
	Path string
}

// ChunkSettings holds chunker configuration.
type ChunkSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// RetrievalSettings holds retriever configuration.
type RetrievalSettings struct {
	// TopK is the number of chunks returned per query.
	TopK int

	// MinScore is the similarity floor.
	MinScore float64

	// Oversample multiplies k for the raw index search.
	Oversample int

	// Dedupe is the per-document deduplication policy.
	Dedupe DedupePolicy
}

// ConversationSettings holds orchestrator configuration.
type ConversationSettings struct {
	// DefaultMode is the mode new conversations start in.
	DefaultMode Mode

	// ContextBudget is the maximum prompt length in characters.
	ContextBudget int

	// HistoryLimit is the number of exchanges kept for prompting.
	HistoryLimit int

	// HistoryWindow is the number of recent exchanges rendered into the prompt.
	HistoryWindow int

	// GenerationTimeout bounds a single generation call.
	GenerationTimeout time.Duration
}

// IngestSettings holds ingestion output configuration.
type IngestSettings struct {
	// SummaryPath is where the processed documents summary is written.
	// Empty disables the summary.
	SummaryPath string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding    EmbeddingSettings
	LLM          LLMSettings
	Index        IndexSettings
	Chunking     ChunkSettings
	Retrieval    RetrievalSettings
	Conversation ConversationSettings
	Ingest       IngestSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Both capabilities default to the offline providers so the tool works
// without network access or API keys.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOffline,
			Dimensions: 384,
			CacheSize:  256,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOffline,
			Temperature: 0.7,
		},
		Index: IndexSettings{
			Backend: IndexBackendMemory,
		},
		Chunking: ChunkSettings{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalSettings{
			TopK:       5,
			MinScore:   0.1,
			Oversample: 3,
			Dedupe:     DedupePolicy{Mode: DedupeAll},
		},
		Conversation: ConversationSettings{
			DefaultMode:       DefaultMode,
			ContextBudget:     6000,
			HistoryLimit:      10,
			HistoryWindow:     5,
			GenerationTimeout: 60 * time.Second,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderOffline,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderLMStudio,
		AIProviderOffline,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderLMStudio:  "local-model",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
