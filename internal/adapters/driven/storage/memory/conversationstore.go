package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu    sync.RWMutex
	turns map[string][]domain.Turn
	order []string
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		turns: make(map[string][]domain.Turn),
	}
}

// AppendTurn adds a turn to the end of a conversation.
func (s *ConversationStore) AppendTurn(_ context.Context, conversationID string, turn domain.Turn) error {
	if conversationID == "" {
		return domain.ErrInvalidInput
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.turns[conversationID]; !ok {
		s.order = append(s.order, conversationID)
	}
	s.turns[conversationID] = append(s.turns[conversationID], turn)
	return nil
}

// Turns returns a conversation's turns in order.
func (s *ConversationStore) Turns(_ context.Context, conversationID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[conversationID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Reset deletes all turns of a conversation.
func (s *ConversationStore) Reset(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.turns[conversationID]; !ok {
		return nil
	}
	delete(s.turns, conversationID)
	for i, id := range s.order {
		if id == conversationID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Conversations returns conversation ids in order of first turn.
func (s *ConversationStore) Conversations(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}
