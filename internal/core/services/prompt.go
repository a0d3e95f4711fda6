package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

const (
	// excerptRunes is how much of a chunk is shown in the prompt context.
	excerptRunes = 300

	noRelevantContext = "No relevant context found."
	conversationStart = "This is the start of our conversation."
)

// promptBuilder renders the system and mode templates into one prompt.
type promptBuilder struct {
	system string
	mode   string
}

// render substitutes every placeholder in a single pass, so text taken
// from documents or the question is never itself expanded.
func (b promptBuilder) render(history []domain.Exchange, chunks []domain.RetrievedChunk, question string) string {
	r := strings.NewReplacer(
		driven.PlaceholderConversation, formatHistory(history),
		driven.PlaceholderContext, formatContext(chunks),
		driven.PlaceholderQuestion, question,
	)
	return r.Replace(b.system + "\n\n" + b.mode)
}

// fit drops the lowest-scoring chunks until the prompt is within budget
// runes. chunks must be sorted by descending score. The best chunk is
// always kept so a long question cannot starve the answer of context.
func (b promptBuilder) fit(history []domain.Exchange, chunks []domain.RetrievedChunk, question string, budget int) (string, []domain.RetrievedChunk) {
	included := chunks
	prompt := b.render(history, included, question)
	for len(included) > 1 && utf8.RuneCountInString(prompt) > budget {
		included = included[:len(included)-1]
		prompt = b.render(history, included, question)
	}
	return prompt, included
}

// formatContext renders chunks with the context block format.
func formatContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return noRelevantContext
	}
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("Source: %s\nRelevance Score: %.2f\nContent: %s\n\n---",
			c.Source, c.Score, excerpt(c.Chunk.Content, excerptRunes))
	}
	return strings.Join(blocks, "\n")
}

// formatHistory renders recent exchanges, oldest first.
func formatHistory(history []domain.Exchange) string {
	if len(history) == 0 {
		return conversationStart
	}
	var b strings.Builder
	for i, ex := range history {
		fmt.Fprintf(&b, "Turn %d:\nUser: %s\nAgent: %s\n", i+1, ex.User, ex.Assistant)
		if i < len(history)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// excerpt truncates s to n runes, marking the cut with "...".
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// citations lists the chunks that were included in a prompt.
func citations(chunks []domain.RetrievedChunk) []domain.Citation {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]domain.Citation, len(chunks))
	for i, c := range chunks {
		out[i] = domain.Citation{
			DocumentID: c.Chunk.DocumentID,
			ChunkID:    c.Chunk.ID,
			Source:     c.Source,
			Score:      c.Score,
		}
	}
	return out
}
