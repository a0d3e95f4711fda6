package langchain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// fakeModel records the last request and returns a canned response.
type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestNew(t *testing.T) {
	g, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.Equal(t, DefaultBaseURL, g.baseURL)
}

func TestGenerate(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "  I have worked with Go for five years. "}},
	}}
	g := NewWithModel(Config{Model: "qwen2.5"}, model)

	text, err := g.Generate(context.Background(), "question", driven.GenerateOptions{
		MaxTokens:   150,
		Temperature: 0.7,
		StopWords:   []string{"\n\nUser:"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I have worked with Go for five years.", text)

	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
	assert.Equal(t, 150, model.opts.MaxTokens)
	assert.InDelta(t, 0.7, model.opts.Temperature, 1e-9)
	assert.Equal(t, []string{"\n\nUser:"}, model.opts.StopWords)
	assert.Equal(t, "qwen2.5", g.ModelName())
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"client error", &fakeModel{err: errors.New("connection refused")}},
		{"nil response", &fakeModel{}},
		{"no choices", &fakeModel{resp: &llms.ContentResponse{}}},
		{"blank content", &fakeModel{resp: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "   "}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithModel(Config{}, tt.model)
			_, err := g.Generate(context.Background(), "q", driven.GenerateOptions{})
			assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	g := NewWithModel(Config{BaseURL: srv.URL + "/v1/"}, &fakeModel{})
	assert.NoError(t, g.Ping(context.Background()))

	g = NewWithModel(Config{BaseURL: srv.URL + "/other"}, &fakeModel{})
	assert.ErrorIs(t, g.Ping(context.Background()), domain.ErrGenerationUnavailable)
	assert.NoError(t, g.Close())
}
