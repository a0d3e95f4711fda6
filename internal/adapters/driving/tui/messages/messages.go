// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// QuestionSubmitted is sent when the user asks a question.
type QuestionSubmitted struct {
	Text string
}

// AnswerReceived carries the orchestrator's answer back to the model.
// Err may be set alongside a non-empty Answer (e.g. a timeout reply).
type AnswerReceived struct {
	Answer domain.Answer
	Err    error
}

// HistoryLoaded carries the turns of a restored conversation.
type HistoryLoaded struct {
	Turns []domain.Turn
	Mode  domain.Mode
	Err   error
}

// ModeChanged signals the conversation switched modes.
type ModeChanged struct {
	Mode domain.Mode
	Err  error
}

// ConversationReset signals the history was cleared.
type ConversationReset struct {
	Err error
}

// DocumentsLoaded carries the ingested documents and index statistics.
type DocumentsLoaded struct {
	Documents []domain.Document
	Info      domain.IndexInfo
	Err       error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewDocuments lists the ingested documents.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
