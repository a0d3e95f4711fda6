package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
)

// Ensure Conversations implements the interface.
var _ driving.ConversationService = (*Conversations)(nil)

// DefaultConversationID is used when a caller does not name a conversation.
const DefaultConversationID = "default"

const (
	recentTopics     = 3
	recentTopicRunes = 50
)

// Conversations is a registry of orchestrators keyed by conversation id.
// Orchestrators are created on first use and restored from the
// conversation store when one is configured.
type Conversations struct {
	deps        OrchestratorDeps
	cfg         OrchestratorConfig
	defaultMode domain.Mode

	mu            sync.Mutex
	orchestrators map[string]*Orchestrator
}

// NewConversations creates an empty registry.
func NewConversations(deps OrchestratorDeps, cfg OrchestratorConfig, defaultMode domain.Mode) (*Conversations, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if !defaultMode.IsValid() {
		defaultMode = domain.DefaultMode
	}
	return &Conversations{
		deps:          deps,
		cfg:           cfg,
		defaultMode:   defaultMode,
		orchestrators: make(map[string]*Orchestrator),
	}, nil
}

// SubmitQuery answers a question in the given conversation.
func (c *Conversations) SubmitQuery(ctx context.Context, conversationID, text string, mode domain.Mode) (domain.Answer, error) {
	o, err := c.orchestrator(ctx, conversationID)
	if err != nil {
		return domain.Answer{}, err
	}
	return o.SubmitInMode(ctx, text, mode)
}

// History returns the conversation's turns in order.
func (c *Conversations) History(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	id := normaliseID(conversationID)
	if o := c.loaded(id); o != nil {
		return o.History(), nil
	}
	if c.deps.Store == nil {
		return []domain.Turn{}, nil
	}
	return c.deps.Store.Turns(ctx, id)
}

// Reset clears the conversation's history.
func (c *Conversations) Reset(ctx context.Context, conversationID string) error {
	id := normaliseID(conversationID)
	if o := c.loaded(id); o != nil {
		return o.Reset(ctx)
	}
	if c.deps.Store == nil {
		return nil
	}
	return c.deps.Store.Reset(ctx, id)
}

// SetMode switches the conversation's mode for subsequent queries.
func (c *Conversations) SetMode(ctx context.Context, conversationID string, mode domain.Mode) error {
	o, err := c.orchestrator(ctx, conversationID)
	if err != nil {
		return err
	}
	return o.SetMode(mode)
}

// Summary describes the conversation.
func (c *Conversations) Summary(ctx context.Context, conversationID string) (domain.ConversationSummary, error) {
	id := normaliseID(conversationID)
	turns, err := c.History(ctx, id)
	if err != nil {
		return domain.ConversationSummary{}, err
	}

	mode := c.defaultMode
	if o := c.loaded(id); o != nil {
		mode = o.Mode()
	} else if m := lastMode(turns); m != "" {
		mode = m
	}

	var topics []string
	for i := len(turns) - 1; i >= 0 && len(topics) < recentTopics; i-- {
		if turns[i].Role == domain.RoleUser {
			topics = append(topics, excerpt(turns[i].Text, recentTopicRunes))
		}
	}
	// Oldest first.
	for i, j := 0, len(topics)-1; i < j; i, j = i+1, j-1 {
		topics[i], topics[j] = topics[j], topics[i]
	}

	return domain.ConversationSummary{
		ID:           id,
		TotalTurns:   len(turns),
		Mode:         mode,
		RecentTopics: topics,
	}, nil
}

// Conversations lists known conversation ids.
func (c *Conversations) Conversations(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	if c.deps.Store != nil {
		stored, err := c.deps.Store.Conversations(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range stored {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	c.mu.Lock()
	var live []string
	for id, o := range c.orchestrators {
		if !seen[id] && len(o.History()) > 0 {
			live = append(live, id)
		}
	}
	c.mu.Unlock()
	sort.Strings(live)
	return append(ids, live...), nil
}

func (c *Conversations) loaded(id string) *Orchestrator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orchestrators[id]
}

// orchestrator returns the orchestrator for id, creating it on first use.
func (c *Conversations) orchestrator(ctx context.Context, conversationID string) (*Orchestrator, error) {
	id := normaliseID(conversationID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if o, ok := c.orchestrators[id]; ok {
		return o, nil
	}

	state := domain.NewConversationState(id, c.defaultMode)
	if c.deps.Store != nil {
		turns, err := c.deps.Store.Turns(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("restore conversation %s: %w", id, err)
		}
		for _, t := range turns {
			state.Append(t)
		}
		if m := lastMode(turns); m != "" {
			state.Mode = m
		}
	}

	o, err := NewOrchestrator(state, c.deps, c.cfg)
	if err != nil {
		return nil, err
	}
	c.orchestrators[id] = o
	return o, nil
}

func normaliseID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultConversationID
	}
	return id
}

func lastMode(turns []domain.Turn) domain.Mode {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Mode.IsValid() {
			return turns[i].Mode
		}
	}
	return ""
}
