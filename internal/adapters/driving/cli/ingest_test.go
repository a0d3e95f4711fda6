package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func resetIngestFlags() {
	ingestFormat = "auto"
	ingestWatch = false
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [path...]", ingestCmd.Use)
	assert.Equal(t, "Ingest documents into the knowledge base", ingestCmd.Short)
	assert.Contains(t, ingestCmd.Long, "docx")
}

func TestIngestCmd_Flags(t *testing.T) {
	format := ingestCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "auto", format.DefValue)

	watch := ingestCmd.Flags().Lookup("watch")
	require.NotNil(t, watch)
	assert.Equal(t, "w", watch.Shorthand)
}

func TestIngestCmd_Directory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	dir := t.TempDir()
	mocks.ingest.dirReport = domain.IngestReport{Statuses: []domain.IngestStatus{
		{Path: filepath.Join(dir, "resume.md"), DocumentID: "d1", Format: domain.FormatMarkdown, Chunks: 3},
		{Path: filepath.Join(dir, "broken.pdf"), Err: domain.ErrParse},
	}}

	out, err := execute(t, "", "ingest", dir)

	require.NoError(t, err)
	assert.Equal(t, []string{dir}, mocks.ingest.dirs)
	assert.Contains(t, out, "ok    resume.md (md, 3 chunks)")
	assert.Contains(t, out, "fail  broken.pdf")
	assert.Contains(t, out, "Ingested 1 of 2 documents, 3 chunks.")
}

func TestIngestCmd_Files(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, "bio")
	require.NoError(t, os.WriteFile(path, []byte("I grew up by the sea."), 0o600))

	out, err := execute(t, "", "ingest", "--format", "txt", path)

	require.NoError(t, err)
	assert.Equal(t, domain.FormatText, mocks.ingest.lastFormat)
	assert.Equal(t, []byte("I grew up by the sea."), mocks.ingest.files[path])
	assert.Contains(t, out, "Ingested 1 of 1 documents, 2 chunks.")
}

func TestIngestCmd_MissingPathFails(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	out, err := execute(t, "", "ingest", filepath.Join(t.TempDir(), "nope.md"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no documents were ingested")
	assert.Contains(t, out, "fail  nope.md")
}

func TestIngestCmd_UnsupportedFormat(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	_, err := execute(t, "", "ingest", "--format", "rtf", ".")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIngestCmd_EmptyDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	out, err := execute(t, "", "ingest", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, "No supported documents found.")
}

func TestIngestCmd_WatchRequiresDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := execute(t, "", "ingest", "--watch", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	resetIngestFlags()
	_, err = execute(t, "", "ingest", "--watch", dir, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one directory")
}

func TestIngestCmd_WatchStopsOnCancel(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Subcommands keep the context of their first execution.
	ingestCmd.SetContext(ctx)
	defer func() {
		ingestCmd.SetContext(context.Background())
		rootCmd.SetContext(context.Background())
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "--watch", dir})
	defer rootCmd.SetArgs(nil)

	err := Execute(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{dir}, mocks.ingest.dirs)
	assert.Contains(t, buf.String(), "Watching "+dir)
}
