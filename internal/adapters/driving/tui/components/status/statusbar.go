// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateThinking  State = "thinking"
	StateError     State = "error"
	StateHelp      State = "help"
	StateDocuments State = "documents"
)

// Bar displays conversation status and keybinding hints.
type Bar struct {
	styles       *styles.Styles
	keymap       *keymap.KeyMap
	state        State
	message      string
	mode         domain.Mode
	conversation string
	turns        int
	width        int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		mode:   domain.DefaultMode,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the mode badge followed by state or message.
func (s *Bar) renderLeft() string {
	badge := s.styles.Mode.Render(s.mode.String())

	var text string
	switch s.state {
	case StateThinking:
		text = s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message != "" {
			text = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			text = s.styles.Error.Render("Error")
		}
	case StateHelp:
		text = s.styles.Normal.Render("Help")
	case StateDocuments:
		text = s.styles.Normal.Render("Documents")
	case StateReady:
		switch {
		case s.message != "":
			text = s.styles.Normal.Render(s.message)
		case s.turns > 0:
			text = s.styles.Muted.Render(fmt.Sprintf("%s · %d turns", s.conversationLabel(), s.turns))
		default:
			text = s.styles.Muted.Render(s.conversationLabel())
		}
	}
	return badge + " " + text
}

func (s *Bar) conversationLabel() string {
	if s.conversation == "" {
		return "default"
	}
	return s.conversation
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateDocuments {
		bindings = s.keymap.DocumentsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a transient message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetMode sets the displayed answer mode.
func (s *Bar) SetMode(mode domain.Mode) {
	s.mode = mode
}

// Mode returns the displayed answer mode.
func (s *Bar) Mode() domain.Mode {
	return s.mode
}

// SetConversation sets the conversation id and turn count.
func (s *Bar) SetConversation(id string, turns int) {
	s.conversation = id
	s.turns = turns
}

// Turns returns the displayed turn count.
func (s *Bar) Turns() int {
	return s.turns
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the state and message. Mode and conversation are kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
