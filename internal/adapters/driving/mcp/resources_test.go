package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestExtractConversationID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid conversation URI", "codex://conversations/job-prep", "job-prep"},
		{"invalid prefix", "file://conversations/job-prep", ""},
		{"other resource", "codex://index", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractConversationID(tt.uri))
		})
	}
}

func TestServer_handleIndexResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns index info", func(t *testing.T) {
		ports, _, _ := newTestPorts()
		ports.Knowledge = &mockKnowledgeService{info: domain.IndexInfo{
			Backend:   "memory",
			Size:      42,
			Dimension: 384,
			Model:     "offline/hashing-384",
			Documents: 3,
		}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleIndexResource(ctx, makeReadResourceRequest("codex://index"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, "memory", got["backend"])
		assert.InDelta(t, 42, got["size"], 0)
		assert.InDelta(t, 3, got["documents"], 0)
	})

	t.Run("without knowledge service", func(t *testing.T) {
		ports, _, _ := newTestPorts()
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleIndexResource(ctx, makeReadResourceRequest("codex://index"))
		assert.Error(t, err)
	})

	t.Run("propagates error", func(t *testing.T) {
		ports, _, _ := newTestPorts()
		ports.Knowledge = &mockKnowledgeService{err: errors.New("boom")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleIndexResource(ctx, makeReadResourceRequest("codex://index"))
		assert.ErrorContains(t, err, "boom")
	})
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents", func(t *testing.T) {
		ports, _, _ := newTestPorts()
		ports.Knowledge = &mockKnowledgeService{documents: []domain.Document{
			{ID: "doc-1", Title: "Resume", URI: "/home/me/resume.pdf", Format: domain.FormatPDF},
		}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("codex://documents"))
		require.NoError(t, err)

		var got []map[string]string
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "doc-1", got[0]["id"])
		assert.Equal(t, "/home/me/resume.pdf", got[0]["uri"])
	})

	t.Run("empty without knowledge service", func(t *testing.T) {
		ports, _, _ := newTestPorts()
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("codex://documents"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleConversationResource(t *testing.T) {
	ctx := context.Background()
	ports, conv, _ := newTestPorts()
	conv.summary = domain.ConversationSummary{
		TotalTurns:   4,
		Mode:         domain.ModeNarrative,
		RecentTopics: []string{"childhood", "first job"},
	}
	server, err := NewServer(ports)
	require.NoError(t, err)

	t.Run("returns summary", func(t *testing.T) {
		result, err := server.handleConversationResource(ctx, makeReadResourceRequest("codex://conversations/c1"))
		require.NoError(t, err)

		var got struct {
			ID           string   `json:"id"`
			TotalTurns   int      `json:"total_turns"`
			Mode         string   `json:"mode"`
			RecentTopics []string `json:"recent_topics"`
		}
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, "c1", got.ID)
		assert.Equal(t, 4, got.TotalTurns)
		assert.Equal(t, "narrative", got.Mode)
		assert.Equal(t, []string{"childhood", "first job"}, got.RecentTopics)
	})

	t.Run("malformed URI", func(t *testing.T) {
		_, err := server.handleConversationResource(ctx, makeReadResourceRequest("codex://conversations/"))
		assert.Error(t, err)
	})
}
