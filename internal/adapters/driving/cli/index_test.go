package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func resetIndexFlags() {
	indexJSON = false
	indexForce = false
}

func TestIndexCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range indexCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"info", "documents", "save", "load", "clear"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestIndexInfoCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()
	mocks.knowledge.info = domain.IndexInfo{
		Backend: "memory", Size: 42, Dimension: 384, Model: "offline/hash-384", Documents: 3,
	}

	out, err := execute(t, "", "index")

	require.NoError(t, err)
	assert.Contains(t, out, "Backend:   memory")
	assert.Contains(t, out, "Chunks:    42")
	assert.Contains(t, out, "Documents: 3")
	assert.Contains(t, out, "Model:     offline/hash-384")
}

func TestIndexInfoCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()
	mocks.knowledge.info = domain.IndexInfo{Backend: "chromem", Size: 7, Dimension: 768}

	out, err := execute(t, "", "index", "info", "--json")
	require.NoError(t, err)

	var got domain.IndexInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, mocks.knowledge.info, got)
}

func TestIndexDocumentsCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()

	out, err := execute(t, "", "index", "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents ingested.")

	mocks.knowledge.docs = []domain.Document{
		{ID: "d1", URI: "/docs/resume.md", Title: "Resume", Format: domain.FormatMarkdown},
		{ID: "d2", URI: "/docs/notes.txt", Format: domain.FormatText},
	}
	out, err = execute(t, "", "index", "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "Resume")
	assert.Contains(t, out, "/docs/notes.txt")
	assert.Contains(t, out, "2 documents")
}

func TestIndexSaveLoadCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()

	out, err := execute(t, "", "index", "save")
	require.NoError(t, err)
	assert.Contains(t, out, "Index saved.")

	_, err = execute(t, "", "index", "save", "/tmp/backup.idx")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "/tmp/backup.idx"}, mocks.knowledge.saved)

	mocks.knowledge.info = domain.IndexInfo{Size: 10, Documents: 2}
	out, err = execute(t, "", "index", "load", "/tmp/backup.idx")
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/backup.idx"}, mocks.knowledge.loaded)
	assert.Contains(t, out, "Index loaded: 10 chunks from 2 documents.")
}

func TestIndexClearCmd(t *testing.T) {
	tests := []struct {
		name        string
		stdin       string
		args        []string
		wantCleared bool
		wantOut     string
	}{
		{"confirmed", "y\n", []string{"index", "clear"}, true, "Knowledge base cleared."},
		{"declined", "n\n", []string{"index", "clear"}, false, "Cancelled."},
		{"no input", "", []string{"index", "clear"}, false, "Cancelled."},
		{"forced", "", []string{"index", "clear", "--force"}, true, "Knowledge base cleared."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()
			defer resetIndexFlags()

			out, err := execute(t, tt.stdin, tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCleared, mocks.knowledge.cleared)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}
