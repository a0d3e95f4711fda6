package mcp

import (
	"net/http"

	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Conversation answers questions within named conversations.
	Conversation driving.ConversationService

	// Retrieval exposes raw similarity search over the corpus.
	Retrieval driving.RetrievalService

	// Knowledge describes the indexed corpus. Optional.
	Knowledge driving.KnowledgeBaseService

	// Metrics is mounted at /metrics in HTTP mode. Optional.
	Metrics http.Handler
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Conversation == nil {
		return ErrMissingConversationService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
