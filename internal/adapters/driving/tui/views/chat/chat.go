// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
)

// View is the chat view: transcript, question input and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	service        driving.ConversationService
	ctx            context.Context
	conversationID string
	mode           domain.Mode
	pinned         bool

	// pending is the question awaiting an answer; "" when idle.
	pending string

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view for one conversation.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	service driving.ConversationService,
	conversationID string,
	mode domain.Mode,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if !mode.IsValid() {
		mode = domain.DefaultMode
	}

	v := &View{
		styles:         s,
		keymap:         km,
		input:          input.NewQuestionInput(s),
		transcript:     transcript.New(s),
		statusbar:      status.NewBar(s, km),
		service:        service,
		ctx:            context.Background(),
		conversationID: conversationID,
		mode:           mode,
		width:          80,
		height:         24,
	}
	v.setMode(mode)
	v.statusbar.SetConversation(conversationID, 0)
	return v
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// PinMode applies the view's mode to the conversation when history is
// loaded, instead of adopting the conversation's stored mode.
func (v *View) PinMode() *View {
	v.pinned = true
	return v
}

// Init starts the cursor blink and restores the conversation history.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadHistory())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.HistoryLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.transcript.SetTurns(msg.Turns)
		if msg.Mode.IsValid() {
			v.setMode(msg.Mode)
		}
		v.syncStatus()
		return v, nil

	case messages.ModeChanged:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.setMode(msg.Mode)
		v.statusbar.Clear()
		v.statusbar.SetMessage("Mode: " + msg.Mode.String())
		return v, nil

	case messages.ConversationReset:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.transcript.Clear()
		v.err = nil
		v.statusbar.Clear()
		v.statusbar.SetMessage("Conversation cleared")
		v.syncStatus()
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case keymap.Matches(key, v.keymap.Submit):
		if v.Waiting() {
			v.statusbar.SetMessage("Still answering the previous question")
			return v, nil
		}
		question := v.input.Take()
		if question == "" {
			return v, nil
		}
		v.pending = question
		v.err = nil
		v.transcript.SetPending(question)
		v.statusbar.SetMessage("")
		v.statusbar.SetState(status.StateThinking)
		return v, v.ask(question)

	case keymap.Matches(key, v.keymap.CycleMode):
		if v.Waiting() {
			return v, nil
		}
		return v, v.changeMode(nextMode(v.mode))

	case keymap.Matches(key, v.keymap.Reset):
		if v.Waiting() {
			return v, nil
		}
		return v, v.reset()

	case keymap.Matches(key, v.keymap.Back):
		v.input.Reset()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleAnswer records the exchange. An answer with text is shown even when
// an error accompanies it.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	question := v.pending
	v.pending = ""
	v.transcript.SetPending("")

	if msg.Answer.Text == "" {
		if msg.Err == nil {
			msg.Err = errors.New("empty answer")
		}
		// Rejected before any turn was recorded; let the user retry.
		v.input.SetValue(question)
		v.setError(msg.Err)
		return
	}

	v.transcript.Append(
		domain.Turn{Role: domain.RoleUser, Text: question, Mode: msg.Answer.Mode},
		domain.Turn{
			Role:      domain.RoleAssistant,
			Text:      msg.Answer.Text,
			Citations: msg.Answer.Citations,
			Mode:      msg.Answer.Mode,
			Degraded:  msg.Answer.Degraded,
		},
	)
	if msg.Err != nil {
		v.setError(msg.Err)
		v.syncStatus()
		return
	}
	v.err = nil
	v.statusbar.Clear()
	v.syncStatus()
}

func (v *View) ask(question string) tea.Cmd {
	ctx := v.ctx
	id := v.conversationID
	mode := v.mode
	return func() tea.Msg {
		if v.service == nil {
			return messages.AnswerReceived{Err: ErrNoConversationService}
		}
		answer, err := v.service.SubmitQuery(ctx, id, question, mode)
		return messages.AnswerReceived{Answer: answer, Err: err}
	}
}

func (v *View) loadHistory() tea.Cmd {
	ctx := v.ctx
	id := v.conversationID
	mode := v.mode
	pinned := v.pinned
	return func() tea.Msg {
		if v.service == nil {
			return messages.HistoryLoaded{Err: ErrNoConversationService}
		}
		if pinned {
			if err := v.service.SetMode(ctx, id, mode); err != nil {
				return messages.HistoryLoaded{Err: err}
			}
		}
		summary, err := v.service.Summary(ctx, id)
		if err != nil {
			return messages.HistoryLoaded{Err: err}
		}
		turns, err := v.service.History(ctx, id)
		return messages.HistoryLoaded{Turns: turns, Mode: summary.Mode, Err: err}
	}
}

func (v *View) changeMode(mode domain.Mode) tea.Cmd {
	ctx := v.ctx
	id := v.conversationID
	return func() tea.Msg {
		if v.service == nil {
			return messages.ModeChanged{Err: ErrNoConversationService}
		}
		return messages.ModeChanged{Mode: mode, Err: v.service.SetMode(ctx, id, mode)}
	}
}

func (v *View) reset() tea.Cmd {
	ctx := v.ctx
	id := v.conversationID
	return func() tea.Msg {
		if v.service == nil {
			return messages.ConversationReset{Err: ErrNoConversationService}
		}
		return messages.ConversationReset{Err: v.service.Reset(ctx, id)}
	}
}

func (v *View) setMode(mode domain.Mode) {
	v.mode = mode
	v.statusbar.SetMode(mode)
	v.input.SetLabel(fmt.Sprintf("You (%s)", mode))
	v.input.SetWidth(v.width)
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) syncStatus() {
	v.statusbar.SetConversation(v.conversationID, v.transcript.Len())
}

// nextMode returns the mode after m, wrapping around.
func nextMode(m domain.Mode) domain.Mode {
	modes := domain.AllModes()
	for i, candidate := range modes {
		if candidate == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("Codex") + " " + v.styles.Muted.Render(v.conversationID)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// header, blank, blank, bordered input (3), status
	v.transcript.SetDimensions(width, height-7)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Waiting returns whether a question is being answered.
func (v *View) Waiting() bool {
	return v.pending != ""
}

// Mode returns the active answer mode.
func (v *View) Mode() domain.Mode {
	return v.mode
}

// ConversationID returns the conversation shown.
func (v *View) ConversationID() string {
	return v.conversationID
}

// Turns returns the turns shown in the transcript.
func (v *View) Turns() []domain.Turn {
	return v.transcript.Turns()
}

// Input returns the current input text.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput sets the input text.
func (v *View) SetInput(text string) {
	v.input.SetValue(text)
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// StatusState returns the status bar state.
func (v *View) StatusState() status.State {
	return v.statusbar.State()
}

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}
