// Package transcript renders a conversation as a scrollable log.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

const (
	userLabel      = "You"
	assistantLabel = "Codex"
)

// Transcript shows the turns of one conversation, newest at the bottom.
type Transcript struct {
	viewport viewport.Model
	styles   *styles.Styles
	turns    []domain.Turn
	pending  string
	width    int
	height   int
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{
		viewport: viewport.New(80, 10),
		styles:   s,
		width:    80,
		height:   10,
	}
	t.refresh()
	return t
}

// Init initialises the transcript.
func (t *Transcript) Init() tea.Cmd {
	return nil
}

// Update scrolls on page keys. Other keys belong to the question input.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // only paging keys scroll
		switch key.Type {
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			t.viewport, cmd = t.viewport.Update(msg)
			return t, cmd
		}
		return t, nil
	}
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible window.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// SetTurns replaces the log.
func (t *Transcript) SetTurns(turns []domain.Turn) {
	t.turns = append([]domain.Turn(nil), turns...)
	t.refresh()
}

// Append adds turns to the end of the log.
func (t *Transcript) Append(turns ...domain.Turn) {
	t.turns = append(t.turns, turns...)
	t.refresh()
}

// SetPending shows a question that is still being answered.
// An empty string removes it.
func (t *Transcript) SetPending(question string) {
	t.pending = question
	t.refresh()
}

// Clear empties the log.
func (t *Transcript) Clear() {
	t.turns = nil
	t.pending = ""
	t.refresh()
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the log.
func (t *Transcript) Turns() []domain.Turn {
	return append([]domain.Turn(nil), t.turns...)
}

// SetDimensions resizes the visible window.
func (t *Transcript) SetDimensions(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}
	t.width = width
	t.height = height
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// Content returns the full rendered log.
func (t *Transcript) Content() string {
	if len(t.turns) == 0 && t.pending == "" {
		return t.styles.Muted.Render("Ask anything about the persona. Answers come from the ingested documents.")
	}

	blocks := make([]string, 0, len(t.turns)+1)
	for i := range t.turns {
		blocks = append(blocks, t.renderTurn(&t.turns[i]))
	}
	if t.pending != "" {
		blocks = append(blocks,
			t.renderMessage(t.styles.UserLabel, userLabel, t.pending),
			t.styles.Muted.Render(assistantLabel+" is thinking..."),
		)
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) renderTurn(turn *domain.Turn) string {
	if turn.Role == domain.RoleUser {
		return t.renderMessage(t.styles.UserLabel, userLabel, turn.Text)
	}

	label := assistantLabel
	if turn.Mode != "" {
		label += " (" + turn.Mode.String() + ")"
	}
	block := t.renderMessage(t.styles.AssistantLabel, label, turn.Text)
	if sources := turn.Sources(); len(sources) > 0 {
		block += "\n" + t.styles.Citation.Render("Sources: "+strings.Join(sources, ", "))
	}
	if turn.Degraded {
		block += "\n" + t.styles.Warning.Render("(fallback answer)")
	}
	return block
}

func (t *Transcript) renderMessage(labelStyle lipgloss.Style, label, text string) string {
	body := lipgloss.NewStyle().Width(t.width).Render(text)
	return labelStyle.Render(label+":") + "\n" + body
}

// refresh re-renders the log and keeps the newest turn visible.
func (t *Transcript) refresh() {
	t.viewport.SetContent(t.Content())
	t.viewport.GotoBottom()
}
