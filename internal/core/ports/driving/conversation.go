package driving

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// ConversationService answers questions about the persona within named
// conversations. Each conversation has its own history and mode.
type ConversationService interface {
	// SubmitQuery answers a question in the given conversation.
	// An empty mode keeps the conversation's current mode.
	// Every call that is not rejected produces an assistant turn, even when
	// the returned error is non-nil (e.g. domain.ErrTimeout).
	// A concurrent call on the same conversation fails with domain.ErrBusy.
	SubmitQuery(ctx context.Context, conversationID, text string, mode domain.Mode) (domain.Answer, error)

	// History returns the conversation's turns in order.
	// An unknown conversation returns an empty slice.
	History(ctx context.Context, conversationID string) ([]domain.Turn, error)

	// Reset clears the conversation's history.
	Reset(ctx context.Context, conversationID string) error

	// SetMode switches the conversation's mode for subsequent queries.
	SetMode(ctx context.Context, conversationID string, mode domain.Mode) error

	// Summary describes the conversation.
	Summary(ctx context.Context, conversationID string) (domain.ConversationSummary, error)

	// Conversations lists known conversation ids.
	Conversations(ctx context.Context) ([]string, error)
}
