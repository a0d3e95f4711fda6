package domain

import (
	"strings"
	"time"
)

// Role identifies who produced a turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation references a chunk that was included in an answer's context.
type Citation struct {
	// DocumentID is the parent document.
	DocumentID string

	// ChunkID is the cited chunk.
	ChunkID string

	// Source is the display name of the parent document.
	Source string

	// Score is the retrieval score of the chunk.
	Score float64
}

// Turn is one message in a conversation.
type Turn struct {
	// Role is who produced the turn.
	Role Role

	// Text is the message text.
	Text string

	// Citations lists chunks that informed an assistant turn.
	Citations []Citation

	// Mode is the mode active when the turn was produced.
	Mode Mode

	// Degraded is true when an assistant turn came from a fallback path.
	Degraded bool

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time
}

// Sources returns the distinct citation sources in order.
func (t Turn) Sources() []string {
	seen := make(map[string]bool, len(t.Citations))
	var sources []string
	for _, c := range t.Citations {
		if seen[c.Source] {
			continue
		}
		seen[c.Source] = true
		sources = append(sources, c.Source)
	}
	return sources
}

// ConversationState is the append-only turn log of one conversation.
// It is owned by a single orchestrator and reset only on explicit clear.
type ConversationState struct {
	// ID is the conversation identifier.
	ID string

	// Mode is the active mode, used for the next submitted query.
	Mode Mode

	turns []Turn
}

// NewConversationState creates an empty conversation.
func NewConversationState(id string, mode Mode) *ConversationState {
	if !mode.IsValid() {
		mode = DefaultMode
	}
	return &ConversationState{ID: id, Mode: mode}
}

// Append adds a turn to the end of the log.
func (s *ConversationState) Append(turn Turn) {
	s.turns = append(s.turns, turn)
}

// Turns returns a copy of the turn log.
func (s *ConversationState) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *ConversationState) Len() int {
	return len(s.turns)
}

// Reset clears the turn log. The mode is kept.
func (s *ConversationState) Reset() {
	s.turns = nil
}

// Exchange pairs a user question with the assistant answer that followed it.
type Exchange struct {
	User      string
	Assistant string
}

// Exchanges returns the most recent completed question/answer pairs,
// oldest first, at most limit of them. A limit <= 0 returns all.
func (s *ConversationState) Exchanges(limit int) []Exchange {
	var out []Exchange
	for i := 0; i+1 < len(s.turns); i++ {
		if s.turns[i].Role == RoleUser && s.turns[i+1].Role == RoleAssistant {
			out = append(out, Exchange{User: s.turns[i].Text, Assistant: s.turns[i+1].Text})
			i++
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Answer is the result of submitting a query.
type Answer struct {
	// ConversationID is the conversation the answer belongs to.
	ConversationID string

	// Text is the answer without the sources footer.
	Text string

	// Citations lists the chunks actually included in the prompt context.
	Citations []Citation

	// Mode is the mode the answer was generated in.
	Mode Mode

	// Degraded is true when the answer came from a fallback path.
	Degraded bool
}

// Sources returns the distinct citation sources in order.
func (a Answer) Sources() []string {
	return Turn{Citations: a.Citations}.Sources()
}

// Render returns the answer text followed by a sources footer.
func (a Answer) Render() string {
	sources := a.Sources()
	if len(sources) == 0 {
		return a.Text
	}
	var b strings.Builder
	b.WriteString(a.Text)
	b.WriteString("\n\nSources:")
	for _, s := range sources {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}

// ConversationSummary describes a conversation at a glance.
type ConversationSummary struct {
	ID           string
	TotalTurns   int
	Mode         Mode
	RecentTopics []string
}
