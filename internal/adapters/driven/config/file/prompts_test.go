package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DefaultDirName, "prompts"), store.Dir())
}

func TestNewPromptStore_NoIO(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	_, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "constructor must not create the directory")
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptSystem)
	require.NoError(t, err)

	for _, name := range driven.AllPrompts() {
		_, err := os.Stat(filepath.Join(dir, name+".txt"))
		assert.NoError(t, err, "expected prompt file for %s", name)
	}
	_, err = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, err)
}

func TestPromptStore_DefaultsHavePlaceholders(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	system, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	assert.Contains(t, system, driven.PlaceholderConversation)
	assert.Contains(t, system, driven.PlaceholderContext)

	for _, mode := range domain.AllModes() {
		prompt, err := store.Load(driven.ModePrompt(mode))
		require.NoError(t, err)
		assert.Contains(t, prompt, driven.PlaceholderQuestion, "mode %s", mode)
	}
}

func TestPromptStore_Load_UnknownName(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("query_rewrite")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromptStore_Load_UserOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interview.txt"), []byte("  Be brief. {question}\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptInterview)
	require.NoError(t, err)
	assert.Equal(t, "Be brief. {question}", prompt)

	// The existing override is not replaced by the default.
	data, err := os.ReadFile(filepath.Join(dir, "interview.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Be brief.")
}

func TestPromptStore_Load_BlankFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fast_facts.txt"), []byte("\n  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptFastFacts)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptFastFacts)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptNoContext)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "no_context.txt"), []byte("Nothing found."), 0600))

	cached, err := store.Load(driven.PromptNoContext)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptNoContext)
	require.NoError(t, err)
	assert.Equal(t, "Nothing found.", fresh)
}

func TestPromptStore_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDocumentUpload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "I notice you haven't added any personal documents yet."))
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = store.Load(driven.PromptNarrative)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}
