package chat

import "errors"

// Error definitions for the chat view.
var (
	// ErrNoConversationService indicates that no conversation service was provided.
	ErrNoConversationService = errors.New("conversation service is required")
)
