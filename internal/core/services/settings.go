package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedFallback   = "embedding.fallback"
	keyEmbedCacheSize  = "embedding.cache_size"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTemperature  = "llm.temperature"
	keyIndexBackend    = "index.backend"
	keyIndexPath       = "index.path"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyTopK            = "retrieval.top_k"
	keyMinScore        = "retrieval.min_score"
	keyOversample      = "retrieval.oversample"
	keyDedupe          = "retrieval.dedupe"
	keyDefaultMode     = "conversation.default_mode"
	keyContextBudget   = "conversation.context_budget"
	keyHistoryLimit    = "conversation.history_limit"
	keyHistoryWindow   = "conversation.history_window"
	keyGenTimeout      = "conversation.generation_timeout"
	keyIngestSummary   = "ingest.summary_path"
	envOpenAIAPIKey    = "OPENAI_API_KEY"
	envAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

type setting struct {
	key   string
	value any
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// API keys missing from the config are read from the environment.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnv(getenv func(string) string) {
	s.getenv = getenv
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	dedupe := defaults.Retrieval.Dedupe
	if raw := s.configStore.GetString(keyDedupe); raw != "" {
		policy, err := domain.ParseDedupePolicy(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keyDedupe, err)
		}
		dedupe = policy
	}

	timeout := defaults.Conversation.GenerationTimeout
	if raw := s.configStore.GetString(keyGenTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, keyGenTimeout, err)
		}
		timeout = d
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.configStore.GetString(keyEmbedModel),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - adapters know their endpoint
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
			Fallback:   domain.AIProvider(s.configStore.GetString(keyEmbedFallback)),
			CacheSize:  s.getIntAllowZero(keyEmbedCacheSize, defaults.Embedding.CacheSize),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.configStore.GetString(keyLLMModel),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
		},
		Index: domain.IndexSettings{
			Backend: domain.IndexBackend(s.getString(keyIndexBackend, string(defaults.Index.Backend))),
			Path:    s.configStore.GetString(keyIndexPath),
		},
		Chunking: domain.ChunkSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:       s.getInt(keyTopK, defaults.Retrieval.TopK),
			MinScore:   s.getFloat(keyMinScore, defaults.Retrieval.MinScore),
			Oversample: s.getInt(keyOversample, defaults.Retrieval.Oversample),
			Dedupe:     dedupe,
		},
		Conversation: domain.ConversationSettings{
			DefaultMode:       s.getMode(defaults.Conversation.DefaultMode),
			ContextBudget:     s.getInt(keyContextBudget, defaults.Conversation.ContextBudget),
			HistoryLimit:      s.getInt(keyHistoryLimit, defaults.Conversation.HistoryLimit),
			HistoryWindow:     s.getInt(keyHistoryWindow, defaults.Conversation.HistoryWindow),
			GenerationTimeout: timeout,
		},
		Ingest: domain.IngestSettings{
			SummaryPath: s.configStore.GetString(keyIngestSummary),
		},
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
// API keys equal to the environment value are not written, so keys taken
// from the environment stay out of the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}

	values := []setting{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedFallback, settings.Embedding.Fallback.String()},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyIndexBackend, string(settings.Index.Backend)},
		{keyIndexPath, settings.Index.Path},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyMinScore, settings.Retrieval.MinScore},
		{keyOversample, settings.Retrieval.Oversample},
		{keyDedupe, settings.Retrieval.Dedupe.String()},
		{keyDefaultMode, settings.Conversation.DefaultMode.String()},
		{keyContextBudget, settings.Conversation.ContextBudget},
		{keyHistoryLimit, settings.Conversation.HistoryLimit},
		{keyHistoryWindow, settings.Conversation.HistoryWindow},
		{keyGenTimeout, settings.Conversation.GenerationTimeout.String()},
		{keyIngestSummary, settings.Ingest.SummaryPath},
		{keyEmbedAPIKey, s.storedAPIKey(settings.Embedding.Provider, settings.Embedding.APIKey)},
		{keyLLMAPIKey, s.storedAPIKey(settings.LLM.Provider, settings.LLM.APIKey)},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.Embedding.Provider != provider {
		settings.Embedding.APIKey = s.envAPIKey(provider)
	}
	if apiKey != "" {
		settings.Embedding.APIKey = apiKey
	}
	if provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if settings.Embedding.Provider != provider || !provider.IsLocal() {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.LLM.Provider != provider {
		settings.LLM.APIKey = s.envAPIKey(provider)
	}
	if apiKey != "" {
		settings.LLM.APIKey = apiKey
	}
	if provider.RequiresAPIKey() && settings.LLM.APIKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if settings.LLM.Provider != provider || !provider.IsLocal() {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	return s.Save(settings)
}

// Validate checks the current settings are internally consistent.
// Every problem is reported, not just the first.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// ValidateSettings checks settings without touching any provider.
func ValidateSettings(settings *domain.AppSettings) error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
	}

	if !settings.Embedding.IsConfigured() {
		invalid("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if f := settings.Embedding.Fallback; f != "" && f != domain.AIProviderOffline {
		invalid("embedding fallback must be %q or empty, got %q", domain.AIProviderOffline, f)
	}
	if !settings.LLM.IsConfigured() {
		invalid("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if !settings.Index.Backend.IsValid() {
		invalid("unknown index backend %q", settings.Index.Backend)
	}
	if c := settings.Chunking; c.Overlap < 0 || c.Size <= c.Overlap {
		invalid("chunk size %d must exceed overlap %d >= 0", c.Size, c.Overlap)
	}
	r := settings.Retrieval
	if r.TopK <= 0 {
		invalid("top_k must be positive, got %d", r.TopK)
	}
	if r.Oversample < 1 {
		invalid("oversample must be at least 1, got %d", r.Oversample)
	}
	if r.MinScore < -1 || r.MinScore > 1 {
		invalid("min_score must be within [-1, 1], got %g", r.MinScore)
	}
	c := settings.Conversation
	if !c.DefaultMode.IsValid() {
		invalid("unknown default mode %q", c.DefaultMode)
	}
	if c.ContextBudget <= 0 {
		invalid("context budget must be positive, got %d", c.ContextBudget)
	}
	if c.HistoryWindow <= 0 || c.HistoryWindow > c.HistoryLimit {
		invalid("history window %d must be within (0, history limit %d]", c.HistoryWindow, c.HistoryLimit)
	}
	if c.GenerationTimeout <= 0 {
		invalid("generation timeout must be positive, got %s", c.GenerationTimeout)
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// envAPIKey returns the API key the environment supplies for provider.
func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(envOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(envAnthropicAPIKey)
	default:
		return ""
	}
}

func (s *SettingsService) storedAPIKey(provider domain.AIProvider, key string) string {
	if key == s.envAPIKey(provider) {
		return ""
	}
	return key
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getMode(defaultVal domain.Mode) domain.Mode {
	mode := domain.Mode(s.configStore.GetString(keyDefaultMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
