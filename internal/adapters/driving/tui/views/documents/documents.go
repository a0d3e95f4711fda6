// Package documents provides the ingested documents view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
)

// ErrNoKnowledgeService indicates that no knowledge base service was provided.
var ErrNoKnowledgeService = errors.New("knowledge base service is required")

// View lists ingested documents with index statistics.
type View struct {
	styles  *styles.Styles
	service driving.KnowledgeBaseService
	ctx     context.Context

	documents    []domain.Document
	info         domain.IndexInfo
	selected     int
	scrollOffset int
	width        int
	height       int
	loading      bool
	err          error
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, service driving.KnowledgeBaseService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		service: service,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if v.service == nil {
			return messages.DocumentsLoaded{Err: ErrNoKnowledgeService}
		}
		info, err := v.service.Info(ctx)
		if err != nil {
			return messages.DocumentsLoaded{Err: err}
		}
		docs, err := v.service.Documents(ctx)
		return messages.DocumentsLoaded{Documents: docs, Info: info, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.documents = msg.Documents
		v.info = msg.Info
		if v.selected >= len(v.documents) {
			v.selected = 0
			v.scrollOffset = 0
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles list navigation.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "r":
		v.loading = true
		return v, v.load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChat}
		}
	}
	return v, nil
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// title, stats, blank lines, detail, help
	available := v.height - 9
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Knowledge base (%d documents)", len(v.documents))))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(v.renderStats()))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("Nothing ingested yet. Run 'codex ingest <dir>' first."))
	default:
		visibleItems := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
			b.WriteString(v.renderDocument(i, &v.documents[i]))
			b.WriteString("\n")
		}
		if len(v.documents) > visibleItems {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visibleItems, len(v.documents)),
				len(v.documents))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(v.renderDetail(&v.documents[v.selected]))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[j/k] navigate  [r] reload  [esc] back to chat"))
	return b.String()
}

func (v *View) renderStats() string {
	if v.info.Backend == "" {
		return "index not loaded"
	}
	model := v.info.Model
	if model == "" {
		model = "no model"
	}
	return fmt.Sprintf("%s index · %d chunks · %d dims · %s",
		v.info.Backend, v.info.Size, v.info.Dimension, model)
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	maxTitleLen := v.width/2 - 4
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen-3] + "..."
	}

	line := fmt.Sprintf("%s%-*s  %-4s", indicator, maxTitleLen, title, doc.Format)
	if index == v.selected {
		return v.styles.Selected.Render(line)
	}
	return v.styles.Normal.Render(line)
}

func (v *View) renderDetail(doc *domain.Document) string {
	detail := doc.URI
	if !doc.CreatedAt.IsZero() {
		detail += "  ingested " + doc.CreatedAt.Format("2006-01-02 15:04")
	}
	return v.styles.Muted.Render(detail)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.adjustScroll()
}

// Documents returns the loaded documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// Info returns the loaded index statistics.
func (v *View) Info() domain.IndexInfo {
	return v.info
}

// SelectedIndex returns the selected row.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Loading returns whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}
