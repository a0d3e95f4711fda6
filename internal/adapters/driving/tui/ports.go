// Package tui provides an interactive terminal chat interface for codex.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Conversation answers questions. Required.
	Conversation driving.ConversationService

	// Knowledge lists ingested documents. Optional.
	Knowledge driving.KnowledgeBaseService

	// ConversationID is the conversation to open. Empty means "default".
	ConversationID string

	// Mode is the starting answer mode. Empty keeps the conversation's mode.
	Mode domain.Mode
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(conversation driving.ConversationService, knowledge driving.KnowledgeBaseService) *Ports {
	return &Ports{
		Conversation: conversation,
		Knowledge:    knowledge,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Conversation == nil {
		return ErrMissingConversationService
	}
	if p.Mode != "" && !p.Mode.IsValid() {
		return ErrInvalidPorts
	}
	return nil
}

// conversationID returns the conversation to open.
func (p *Ports) conversationID() string {
	if p.ConversationID == "" {
		return "default"
	}
	return p.ConversationID
}
