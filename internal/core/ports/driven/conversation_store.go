package driven

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// ConversationStore persists conversation turns so history survives restarts.
type ConversationStore interface {
	// AppendTurn adds a turn to the end of a conversation.
	AppendTurn(ctx context.Context, conversationID string, turn domain.Turn) error

	// Turns returns a conversation's turns in order.
	// An unknown conversation returns an empty slice.
	Turns(ctx context.Context, conversationID string) ([]domain.Turn, error)

	// Reset deletes all turns of a conversation.
	Reset(ctx context.Context, conversationID string) error

	// Conversations returns the ids of all stored conversations.
	Conversations(ctx context.Context) ([]string, error)
}
