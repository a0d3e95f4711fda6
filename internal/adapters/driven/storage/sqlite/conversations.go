package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// citationRecord is the persisted form of a citation.
type citationRecord struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
}

// AppendTurn adds a turn to the end of a conversation.
func (s *conversationStore) AppendTurn(ctx context.Context, conversationID string, turn domain.Turn) error {
	if conversationID == "" {
		return fmt.Errorf("%w: empty conversation id", domain.ErrInvalidInput)
	}

	records := make([]citationRecord, len(turn.Citations))
	for i, c := range turn.Citations {
		records[i] = citationRecord(c)
	}
	citations, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshalling citations: %w", err)
	}

	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (conversation_id, role, text, mode, degraded, citations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, conversationID, string(turn.Role), turn.Text, string(turn.Mode), boolToInt(turn.Degraded),
		string(citations), formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// Turns returns a conversation's turns in order.
func (s *conversationStore) Turns(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT role, text, mode, degraded, citations, created_at
		FROM conversation_turns WHERE conversation_id = ?
		ORDER BY seq
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var turn domain.Turn
		var role, mode, citations, createdAt string
		var degraded int

		if err := rows.Scan(&role, &turn.Text, &mode, &degraded, &citations, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Degraded = degraded != 0
		turn.Role = domain.Role(role)
		turn.Mode = domain.Mode(mode)

		var records []citationRecord
		if err := json.Unmarshal([]byte(citations), &records); err != nil {
			return nil, fmt.Errorf("unmarshalling citations: %w", err)
		}
		for _, r := range records {
			turn.Citations = append(turn.Citations, domain.Citation(r))
		}

		if turn.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// Reset deletes all turns of a conversation.
func (s *conversationStore) Reset(ctx context.Context, conversationID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM conversation_turns WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("resetting conversation: %w", err)
	}
	return nil
}

// Conversations returns the ids of all stored conversations.
func (s *conversationStore) Conversations(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT conversation_id FROM conversation_turns
		GROUP BY conversation_id
		ORDER BY MIN(seq)
	`)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
