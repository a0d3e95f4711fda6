package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func resetRetrieveFlags() {
	retrieveK = 0
	retrieveMinScore = -1
	retrieveJSON = false
}

func TestRetrieveCmd_Use(t *testing.T) {
	assert.Equal(t, "retrieve [query]", retrieveCmd.Use)
}

func TestRetrieveCmd_UsesConfiguredDefaults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetRetrieveFlags()
	mocks.settings.settings.Retrieval.TopK = 8
	mocks.settings.settings.Retrieval.MinScore = 0.3

	out, err := execute(t, "", "retrieve", "team", "leadership")

	require.NoError(t, err)
	assert.Equal(t, "team leadership", mocks.retrieval.lastQuery)
	assert.Equal(t, 8, mocks.retrieval.lastK)
	assert.InDelta(t, 0.3, mocks.retrieval.lastMinScore, 1e-9)
	assert.Contains(t, out, "No matching chunks.")
}

func TestRetrieveCmd_FlagsOverrideDefaults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetRetrieveFlags()

	_, err := execute(t, "", "retrieve", "-k", "2", "--min-score", "0", "q")

	require.NoError(t, err)
	assert.Equal(t, 2, mocks.retrieval.lastK)
	assert.InDelta(t, 0.0, mocks.retrieval.lastMinScore, 1e-9)
}

func TestRetrieveCmd_PrintsResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetRetrieveFlags()
	mocks.retrieval.result = domain.RetrievalResult{
		{Chunk: domain.Chunk{ID: "d1#0", Content: "Led   the\nplatform team."}, Score: 0.91, Source: "resume.md"},
		{Chunk: domain.Chunk{ID: "d2#3", Content: strings.Repeat("a", 300)}, Score: 0.42, Source: "notes.txt"},
	}

	out, err := execute(t, "", "retrieve", "q")

	require.NoError(t, err)
	assert.Contains(t, out, "Results: 2")
	assert.Contains(t, out, "1. [0.910] resume.md")
	assert.Contains(t, out, "Led the platform team.")
	assert.Contains(t, out, "...")
}

func TestRetrieveCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetRetrieveFlags()
	mocks.retrieval.err = domain.ErrEmbeddingUnavailable

	_, err := execute(t, "", "retrieve", "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet(" a \n b ", 10))
	assert.Equal(t, "héll...", snippet("héllo", 4))
}

func TestRetrievalDefaults_WithoutSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	k, minScore := retrievalDefaults()
	assert.Equal(t, 5, k)
	assert.InDelta(t, 0.1, minScore, 1e-9)
}
