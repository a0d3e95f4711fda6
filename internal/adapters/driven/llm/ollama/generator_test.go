package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

func newGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestNew_Defaults(t *testing.T) {
	g := New(Config{})
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.Equal(t, DefaultBaseURL, g.baseURL)
}

func TestGenerate(t *testing.T) {
	g := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "prompt text", req.Prompt)
		require.NotNil(t, req.Options)
		assert.Equal(t, 200, req.Options.NumPredict)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "• Go\n• Python\n", Done: true})
	})

	text, err := g.Generate(context.Background(), "prompt text", driven.GenerateOptions{MaxTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "• Go\n• Python", text)
}

func TestGenerate_NoOptions(t *testing.T) {
	g := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req.Options)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true})
	})

	_, err := g.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.NoError(t, err)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"model missing", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"model 'llama3.2' not found"}`, http.StatusNotFound)
		}},
		{"error field", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(generateResponse{Error: "out of memory"})
		}},
		{"empty response", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(generateResponse{Done: true})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(t, tt.handler)
			_, err := g.Generate(context.Background(), "p", driven.GenerateOptions{})
			assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
		})
	}
}

func TestGenerate_ContextCancelled(t *testing.T) {
	g := newGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "late"})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "p", driven.GenerateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPing(t *testing.T) {
	g := newGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.NoError(t, g.Ping(context.Background()))
	assert.NoError(t, g.Close())
}
