package driven

import "github.com/custodia-labs/codex-cli/internal/core/domain"

// PromptStore provides access to prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error wrapping domain.ErrNotFound.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptSystem is the base system prompt.
	// It uses the {conversation_context} and {relevant_context} placeholders.
	PromptSystem = "system"

	// PromptInterview frames answers for interview mode.
	// It uses the {question} placeholder.
	PromptInterview = "interview"

	// PromptNarrative frames answers for personal storytelling mode.
	// It uses the {question} placeholder.
	PromptNarrative = "narrative"

	// PromptFastFacts frames answers for fast facts mode.
	// It uses the {question} placeholder.
	PromptFastFacts = "fast_facts"

	// PromptDocumentUpload is shown when no documents have been ingested.
	// This prompt has no format placeholders.
	PromptDocumentUpload = "document_upload"

	// PromptNoContext is the answer given when retrieval finds nothing relevant.
	// This prompt has no format placeholders.
	PromptNoContext = "no_context"
)

// ModePrompt returns the prompt name for a mode.
func ModePrompt(mode domain.Mode) string {
	switch mode {
	case domain.ModeNarrative:
		return PromptNarrative
	case domain.ModeFastFacts:
		return PromptFastFacts
	default:
		return PromptInterview
	}
}

// AllPrompts returns every well-known prompt name.
func AllPrompts() []string {
	return []string{
		PromptSystem,
		PromptInterview,
		PromptNarrative,
		PromptFastFacts,
		PromptDocumentUpload,
		PromptNoContext,
	}
}

// Placeholders substituted into prompt templates.
const (
	PlaceholderConversation = "{conversation_context}"
	PlaceholderContext      = "{relevant_context}"
	PlaceholderQuestion     = "{question}"
)
