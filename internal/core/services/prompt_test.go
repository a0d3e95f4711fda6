package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func TestFormatContext(t *testing.T) {
	assert.Equal(t, "No relevant context found.", formatContext(nil))

	got := formatContext([]domain.RetrievedChunk{
		retrieved("a", "resume.pdf", "Led the data platform team.", 0.912),
		retrieved("b", "notes.md", "Enjoys hiking.", 0.5),
	})
	want := "Source: resume.pdf\nRelevance Score: 0.91\nContent: Led the data platform team.\n\n---\n" +
		"Source: notes.md\nRelevance Score: 0.50\nContent: Enjoys hiking.\n\n---"
	assert.Equal(t, want, got)
}

func TestFormatContext_ExcerptsLongChunks(t *testing.T) {
	long := strings.Repeat("é", 400)
	got := formatContext([]domain.RetrievedChunk{retrieved("a", "a.txt", long, 1)})

	assert.Contains(t, got, "Content: "+strings.Repeat("é", 300)+"...\n")
	assert.NotContains(t, got, strings.Repeat("é", 301))
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "This is the start of our conversation.", formatHistory(nil))

	got := formatHistory([]domain.Exchange{
		{User: "Where do you work?", Assistant: "At Acme."},
		{User: "Since when?", Assistant: "2019."},
	})
	want := "Turn 1:\nUser: Where do you work?\nAgent: At Acme.\n\n" +
		"Turn 2:\nUser: Since when?\nAgent: 2019.\n"
	assert.Equal(t, want, got)
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 5, "hello..."},
		{"runes not bytes", "日本語テキスト", 3, "日本語..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, excerpt(tt.in, tt.n))
		})
	}
}

func TestPromptBuilder_Render(t *testing.T) {
	b := promptBuilder{
		system: "History: {conversation_context}\nContext: {relevant_context}",
		mode:   "Q: {question}",
	}

	got := b.render(nil, nil, "What is {relevant_context}?")

	assert.Equal(t, "History: This is the start of our conversation.\n"+
		"Context: No relevant context found.\n\n"+
		"Q: What is {relevant_context}?", got)
}

func TestPromptBuilder_Fit(t *testing.T) {
	b := promptBuilder{system: "{relevant_context}", mode: "{question}"}
	chunks := []domain.RetrievedChunk{
		retrieved("a", "a.txt", strings.Repeat("a", 100), 0.9),
		retrieved("b", "b.txt", strings.Repeat("b", 100), 0.8),
		retrieved("c", "c.txt", strings.Repeat("c", 100), 0.7),
	}

	t.Run("everything fits", func(t *testing.T) {
		prompt, included := b.fit(nil, chunks, "q", 10000)
		assert.Len(t, included, 3)
		assert.Contains(t, prompt, "c.txt")
	})

	t.Run("drops lowest scores first", func(t *testing.T) {
		full := b.render(nil, chunks, "q")
		budget := utf8.RuneCountInString(full) - 1

		prompt, included := b.fit(nil, chunks, "q", budget)
		assert.Len(t, included, 2)
		assert.Equal(t, "a", included[0].Chunk.DocumentID)
		assert.Equal(t, "b", included[1].Chunk.DocumentID)
		assert.NotContains(t, prompt, "c.txt")
		assert.LessOrEqual(t, utf8.RuneCountInString(prompt), budget)
	})

	t.Run("keeps the best chunk under a tiny budget", func(t *testing.T) {
		prompt, included := b.fit(nil, chunks, "q", 10)
		assert.Len(t, included, 1)
		assert.Equal(t, "a", included[0].Chunk.DocumentID)
		assert.Contains(t, prompt, "a.txt")
	})
}

func TestCitations(t *testing.T) {
	assert.Nil(t, citations(nil))

	got := citations([]domain.RetrievedChunk{retrieved("a", "a.txt", "text", 0.75)})
	assert.Equal(t, []domain.Citation{{DocumentID: "a", ChunkID: "a-chunk", Source: "a.txt", Score: 0.75}}, got)
}
