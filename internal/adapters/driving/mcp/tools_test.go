package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with citations", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		conv.answer = domain.Answer{
			ConversationID: "job-prep",
			Text:           "I led the platform team for three years.",
			Mode:           domain.ModeInterview,
			Citations: []domain.Citation{
				{DocumentID: "doc-1", ChunkID: "c-1", Source: "resume.pdf", Score: 0.82},
				{DocumentID: "doc-1", ChunkID: "c-2", Source: "resume.pdf", Score: 0.61},
			},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{
			Question:       "What was your last role?",
			ConversationID: "job-prep",
			Mode:           "interview",
		})

		require.NoError(t, err)
		assert.Equal(t, "job-prep", output.ConversationID)
		assert.Equal(t, "I led the platform team for three years.", output.Answer)
		assert.Equal(t, "interview", output.Mode)
		assert.Equal(t, []string{"resume.pdf"}, output.Sources)
		require.Len(t, output.Citations, 2)
		assert.Equal(t, "c-2", output.Citations[1].ChunkID)
		assert.Empty(t, output.Warning)
		assert.Equal(t, "What was your last role?", conv.lastText)
		assert.Equal(t, domain.ModeInterview, conv.lastMode)
	})

	t.Run("mode aliases are parsed", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		conv.answer = domain.Answer{Text: "Once upon a time", Mode: domain.ModeNarrative}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q", Mode: "storytelling"})
		require.NoError(t, err)
		assert.Equal(t, domain.ModeNarrative, conv.lastMode)
	})

	t.Run("empty mode keeps conversation mode", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		conv.answer = domain.Answer{Text: "ok"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, domain.Mode(""), conv.lastMode)
		assert.Equal(t, []string{}, output.Sources)
	})

	t.Run("unknown mode is rejected", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q", Mode: "poetry"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, conv.lastText)
	})

	t.Run("degraded answer is returned with warning", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		conv.answer = domain.Answer{Text: "That took too long, please try again.", Degraded: true}
		conv.err = fmt.Errorf("%w: generation exceeded 60s", domain.ErrTimeout)
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})
		require.NoError(t, err)
		assert.True(t, output.Degraded)
		assert.Contains(t, output.Warning, "timed out")
	})

	t.Run("rejected query returns error", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		conv.err = domain.ErrBusy
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorIs(t, err, domain.ErrBusy)
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		ports, _, ret := newTestPorts()
		ret.results = domain.RetrievalResult{
			{
				Chunk:  domain.Chunk{ID: "c-1", DocumentID: "doc-1", Content: "I grew up by the sea."},
				Score:  0.9,
				Source: "memoir.md",
			},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "childhood", K: 3, MinScore: 0.2})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, RetrievedOutput{
			DocumentID: "doc-1",
			ChunkID:    "c-1",
			Source:     "memoir.md",
			Score:      0.9,
			Content:    "I grew up by the sea.",
		}, output.Results[0])
		assert.Equal(t, 3, ret.lastK)
		assert.Equal(t, 0.2, ret.lastMin)
	})

	t.Run("default k", func(t *testing.T) {
		ports, _, ret := newTestPorts()
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "q"})
		require.NoError(t, err)
		assert.Equal(t, defaultRetrieveK, ret.lastK)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
	})

	t.Run("propagates error", func(t *testing.T) {
		ports, _, ret := newTestPorts()
		ret.err = domain.ErrEmbeddingUnavailable
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "q"})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestServer_handleHistory(t *testing.T) {
	ctx := context.Background()
	ports, conv, _ := newTestPorts()
	conv.summary = domain.ConversationSummary{Mode: domain.ModeFastFacts}
	conv.turns = []domain.Turn{
		{Role: domain.RoleUser, Text: "Where did you study?", Mode: domain.ModeFastFacts},
		{
			Role:      domain.RoleAssistant,
			Text:      "- Edinburgh",
			Mode:      domain.ModeFastFacts,
			Citations: []domain.Citation{{Source: "cv.docx"}, {Source: "cv.docx"}},
		},
	}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, output, err := server.handleHistory(ctx, nil, ConversationInput{ConversationID: "c1"})

	require.NoError(t, err)
	assert.Equal(t, "c1", output.ConversationID)
	assert.Equal(t, "fast_facts", output.Mode)
	require.Len(t, output.Turns, 2)
	assert.Equal(t, "user", output.Turns[0].Role)
	assert.Empty(t, output.Turns[0].Sources)
	assert.Equal(t, []string{"cv.docx"}, output.Turns[1].Sources)
}

func TestServer_handleReset(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults conversation id", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleReset(ctx, nil, ConversationInput{})
		require.NoError(t, err)
		assert.True(t, output.Cleared)
		assert.Equal(t, "default", output.ConversationID)
		assert.Equal(t, []string{"default"}, conv.resetIDs)
	})

	t.Run("busy conversation", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		conv.resetErr = domain.ErrBusy
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleReset(ctx, nil, ConversationInput{ConversationID: "c1"})
		assert.ErrorIs(t, err, domain.ErrBusy)
	})

	t.Run("other errors", func(t *testing.T) {
		ports, conv, _ := newTestPorts()
		conv.resetErr = errors.New("disk full")
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleReset(ctx, nil, ConversationInput{ConversationID: "c1"})
		assert.EqualError(t, err, "disk full")
	})
}
