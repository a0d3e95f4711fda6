package chat

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// MockConversationService implements driving.ConversationService for testing.
type MockConversationService struct {
	SubmitFunc func(ctx context.Context, id, text string, mode domain.Mode) (domain.Answer, error)
	Turns      []domain.Turn
	Summ       domain.ConversationSummary
	Err        error

	Modes  []domain.Mode
	Resets int
}

func (m *MockConversationService) SubmitQuery(
	ctx context.Context,
	id, text string,
	mode domain.Mode,
) (domain.Answer, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, id, text, mode)
	}
	return domain.Answer{ConversationID: id, Text: "answer to " + text, Mode: mode}, nil
}

func (m *MockConversationService) History(_ context.Context, _ string) ([]domain.Turn, error) {
	return m.Turns, m.Err
}

func (m *MockConversationService) Reset(_ context.Context, _ string) error {
	m.Resets++
	return m.Err
}

func (m *MockConversationService) SetMode(_ context.Context, _ string, mode domain.Mode) error {
	m.Modes = append(m.Modes, mode)
	return m.Err
}

func (m *MockConversationService) Summary(_ context.Context, id string) (domain.ConversationSummary, error) {
	s := m.Summ
	s.ID = id
	if len(m.Modes) > 0 {
		s.Mode = m.Modes[len(m.Modes)-1]
	}
	return s, m.Err
}

func (m *MockConversationService) Conversations(_ context.Context) ([]string, error) {
	return nil, m.Err
}

func newTestView(svc *MockConversationService) *View {
	v := NewView(nil, nil, svc, "c1", domain.ModeInterview)
	v.SetDimensions(100, 30)
	return v
}

func typeText(v *View, text string) *View {
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, &MockConversationService{}, "c1", "")

	require.NotNil(t, v)
	assert.Equal(t, domain.DefaultMode, v.Mode())
	assert.Equal(t, "c1", v.ConversationID())
	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Init_LoadsHistory(t *testing.T) {
	svc := &MockConversationService{
		Turns: []domain.Turn{{Role: domain.RoleUser, Text: "earlier"}, {Role: domain.RoleAssistant, Text: "reply"}},
		Summ:  domain.ConversationSummary{Mode: domain.ModeNarrative},
	}
	v := newTestView(svc)

	msg := v.loadHistory()()
	v, _ = v.Update(msg)

	assert.Len(t, v.Turns(), 2)
	assert.Equal(t, domain.ModeNarrative, v.Mode())
	assert.NotNil(t, v.Init())
}

func TestView_PinnedModeOverridesStored(t *testing.T) {
	svc := &MockConversationService{Summ: domain.ConversationSummary{Mode: domain.ModeNarrative}}
	v := NewView(nil, nil, svc, "c1", domain.ModeFastFacts).PinMode()
	v.SetDimensions(100, 30)

	v, _ = v.Update(v.loadHistory()())

	assert.Equal(t, []domain.Mode{domain.ModeFastFacts}, svc.Modes)
	assert.Equal(t, domain.ModeFastFacts, v.Mode())
}

func TestView_SubmitQuestion(t *testing.T) {
	svc := &MockConversationService{}
	v := newTestView(svc)
	v = typeText(v, "Where did you study?")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, v.Waiting())
	assert.Equal(t, "", v.Input())
	assert.Equal(t, status.StateThinking, v.StatusState())

	v, _ = v.Update(cmd())

	assert.False(t, v.Waiting())
	turns := v.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "Where did you study?", turns[0].Text)
	assert.Equal(t, "answer to Where did you study?", turns[1].Text)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)
	assert.Equal(t, status.StateReady, v.StatusState())
	assert.Contains(t, v.View(), "answer to Where did you study?")
}

func TestView_SubmitEmptyIsIgnored(t *testing.T) {
	v := newTestView(&MockConversationService{})
	v = typeText(v, "   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Waiting())
}

func TestView_SubmitWhileWaiting(t *testing.T) {
	v := newTestView(&MockConversationService{})
	v = typeText(v, "first")
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v = typeText(v, "second")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, "second", v.Input())
	assert.Contains(t, v.StatusMessage(), "Still answering")
}

func TestView_AnswerWithError(t *testing.T) {
	tests := []struct {
		name      string
		answer    domain.Answer
		err       error
		wantTurns int
		wantInput string
	}{
		{
			name:      "timeout still shows reply",
			answer:    domain.Answer{Text: "That took too long.", Degraded: true},
			err:       fmt.Errorf("%w: after 60s", domain.ErrTimeout),
			wantTurns: 2,
		},
		{
			name:      "rejected query restores input",
			err:       domain.ErrBusy,
			wantTurns: 0,
			wantInput: "why?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockConversationService{
				SubmitFunc: func(context.Context, string, string, domain.Mode) (domain.Answer, error) {
					return tt.answer, tt.err
				},
			}
			v := newTestView(svc)
			v = typeText(v, "why?")
			v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
			require.NotNil(t, cmd)

			v, _ = v.Update(cmd())

			assert.Len(t, v.Turns(), tt.wantTurns)
			assert.Equal(t, tt.wantInput, v.Input())
			assert.ErrorIs(t, v.Err(), tt.err)
			assert.Equal(t, status.StateError, v.StatusState())
			assert.False(t, v.Waiting())
		})
	}
}

func TestView_CycleMode(t *testing.T) {
	svc := &MockConversationService{}
	v := newTestView(svc)

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.Equal(t, []domain.Mode{domain.ModeNarrative}, svc.Modes)
	assert.Equal(t, domain.ModeNarrative, v.Mode())
	assert.Equal(t, "Mode: narrative", v.StatusMessage())
}

func TestNextMode(t *testing.T) {
	tests := []struct {
		from domain.Mode
		want domain.Mode
	}{
		{domain.ModeInterview, domain.ModeNarrative},
		{domain.ModeNarrative, domain.ModeFastFacts},
		{domain.ModeFastFacts, domain.ModeInterview},
		{domain.Mode("bogus"), domain.ModeInterview},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.want, nextMode(tt.from))
		})
	}
}

func TestView_Reset(t *testing.T) {
	svc := &MockConversationService{}
	v := newTestView(svc)
	v, _ = v.Update(messages.HistoryLoaded{Turns: []domain.Turn{{Role: domain.RoleUser, Text: "q"}}})

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.Equal(t, 1, svc.Resets)
	assert.Empty(t, v.Turns())
	assert.Equal(t, "Conversation cleared", v.StatusMessage())
}

func TestView_ResetFailure(t *testing.T) {
	v := newTestView(&MockConversationService{})

	v, _ = v.Update(messages.ConversationReset{Err: domain.ErrBusy})

	assert.ErrorIs(t, v.Err(), domain.ErrBusy)
	assert.Equal(t, status.StateError, v.StatusState())
}

func TestView_EscClearsInput(t *testing.T) {
	v := newTestView(&MockConversationService{})
	v = typeText(v, "draft")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, "", v.Input())
}

func TestView_NilService(t *testing.T) {
	v := NewView(nil, nil, nil, "c1", domain.ModeInterview)
	v.SetDimensions(80, 24)
	v.SetInput("hello")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.ErrorIs(t, v.Err(), ErrNoConversationService)
	assert.Equal(t, "hello", v.Input())
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newTestView(&MockConversationService{})

	v, _ = v.Update(messages.ErrorOccurred{Err: fmt.Errorf("boom")})

	assert.EqualError(t, v.Err(), "boom")
	assert.Contains(t, v.View(), "Error: boom")
}
