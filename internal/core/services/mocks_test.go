package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService with fixed vectors.
type mockEmbeddingService struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	calls    int
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := m.vectors[text]
		if !ok {
			v = m.fallback
		}
		if v == nil {
			return nil, fmt.Errorf("%w: no vector for %q", domain.ErrEmbeddingUnavailable, text)
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return 3 }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockGenerator implements driven.Generator. generate is called when set.
type mockGenerator struct {
	name     string
	generate func(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error)

	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()
	if m.generate == nil {
		return "generated answer", nil
	}
	return m.generate(ctx, prompt, opts)
}

func (m *mockGenerator) ModelName() string {
	if m.name == "" {
		return "mock-llm"
	}
	return m.name
}

func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) Close() error                 { return nil }

func (m *mockGenerator) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockGenerator) lastOptions() driven.GenerateOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		return driven.GenerateOptions{}
	}
	return m.opts[len(m.opts)-1]
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// failingGenerator always fails with the given error.
func failingGenerator(err error) *mockGenerator {
	return &mockGenerator{
		generate: func(context.Context, string, driven.GenerateOptions) (string, error) {
			return "", err
		},
	}
}

// mockPromptStore implements driven.PromptStore with short templates.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptSystem:         "SYSTEM\nHistory:\n{conversation_context}\nContext:\n{relevant_context}",
		driven.PromptInterview:      "INTERVIEW: {question}",
		driven.PromptNarrative:      "NARRATIVE: {question}",
		driven.PromptFastFacts:      "FACTS: {question}",
		driven.PromptDocumentUpload: "Please upload some documents first.",
		driven.PromptNoContext:      "I don't have anything about that.",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("%w: prompt %s", domain.ErrNotFound, name)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// recordingMetrics implements driven.Metrics and counts calls.
type recordingMetrics struct {
	mu          sync.Mutex
	retrievals  []int
	generations []error
	fallbacks   []string
	ingests     []string
	busy        int
}

func (m *recordingMetrics) ObserveRetrieval(_ time.Duration, results int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievals = append(m.retrievals, results)
}

func (m *recordingMetrics) ObserveGeneration(_ string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations = append(m.generations, err)
}

func (m *recordingMetrics) IncFallback(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, reason)
}

func (m *recordingMetrics) IncIngest(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingests = append(m.ingests, status)
}

func (m *recordingMetrics) IncBusy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy++
}

func (m *recordingMetrics) fallbackReasons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fallbacks...)
}

// mockRetriever implements driving.RetrievalService with a fixed result.
type mockRetriever struct {
	result domain.RetrievalResult
	err    error
	block  chan struct{}

	mu      sync.Mutex
	queries []string
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int, _ float64) (domain.RetrievalResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.result) > k {
		return m.result[:k], nil
	}
	return m.result, nil
}

// failingConversationStore fails every write.
type failingConversationStore struct{}

var errStoreDown = errors.New("store down")

func (failingConversationStore) AppendTurn(context.Context, string, domain.Turn) error {
	return errStoreDown
}

func (failingConversationStore) Turns(context.Context, string) ([]domain.Turn, error) {
	return nil, errStoreDown
}

func (failingConversationStore) Reset(context.Context, string) error {
	return errStoreDown
}

func (failingConversationStore) Conversations(context.Context) ([]string, error) {
	return nil, errStoreDown
}

// retrieved builds a retrieved chunk for prompt and orchestrator tests.
func retrieved(docID, source, content string, score float64) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{
			ID:         docID + "-chunk",
			DocumentID: docID,
			Content:    content,
			End:        len([]rune(content)),
		},
		Score:  score,
		Source: source,
	}
}
