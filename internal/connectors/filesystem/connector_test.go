package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func collect(t *testing.T, c *Connector) ([]domain.RawDocument, []error) {
	t.Helper()
	docsChan, errsChan := c.FullSync(context.Background())

	var docs []domain.RawDocument
	for doc := range docsChan {
		docs = append(docs, doc)
	}
	var errs []error
	for err := range errsChan {
		errs = append(errs, err)
	}
	return docs, errs
}

func TestConnector_Basics(t *testing.T) {
	c := New("/tmp/test")
	assert.Equal(t, "filesystem", c.Type())
	assert.Equal(t, "/tmp/test", c.RootPath())
}

func TestConnector_Validate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.NoError(t, New(dir).Validate(context.Background()))

	err := New(filepath.Join(dir, "missing")).Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	err = New(file).Validate(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConnector_FullSync(t *testing.T) {
	t.Run("emits supported files only", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cv.md"), []byte("# CV"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("notes"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte{0x89}, 0o644))

		docs, errs := collect(t, New(dir))
		require.Empty(t, errs)
		require.Len(t, docs, 2)

		uris := []string{filepath.Base(docs[0].URI), filepath.Base(docs[1].URI)}
		sort.Strings(uris)
		assert.Equal(t, []string{"cv.md", "notes.txt"}, uris)

		for _, d := range docs {
			assert.NotEmpty(t, d.Content)
			assert.True(t, d.Format.IsValid())
			assert.Equal(t, d.Format.MIMEType(), d.MIMEType)
			assert.Equal(t, filepath.Base(d.URI), d.Metadata["filename"])
		}
	})

	t.Run("skips hidden files and directories", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("visible"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("hidden"), 0o644))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD.txt"), []byte("ref"), 0o644))

		docs, _ := collect(t, New(dir))
		require.Len(t, docs, 1)
		assert.Contains(t, docs[0].URI, "visible.txt")
	})

	t.Run("walks nested directories", func(t *testing.T) {
		dir := t.TempDir()
		nested := filepath.Join(dir, "work", "2023")
		require.NoError(t, os.MkdirAll(nested, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(nested, "review.txt"), []byte("review"), 0o644))

		docs, _ := collect(t, New(dir))
		require.Len(t, docs, 1)
		assert.Equal(t, filepath.Join(nested, "review.txt"), docs[0].URI)
	})

	t.Run("reports missing root", func(t *testing.T) {
		docs, errs := collect(t, New("/non/existent/path"))
		assert.Empty(t, docs)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "does not exist")
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		docsChan, errsChan := New(dir).FullSync(ctx)
		for range docsChan {
		}
		var errs []error
		for err := range errsChan {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], context.Canceled)
	})
}

func TestConnector_Watch(t *testing.T) {
	wait := func(t *testing.T, changes <-chan domain.RawDocumentChange) domain.RawDocumentChange {
		t.Helper()
		select {
		case change := <-changes:
			return change
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for file change event")
			return domain.RawDocumentChange{}
		}
	}

	t.Run("detects new files", func(t *testing.T) {
		dir := t.TempDir()
		c := New(dir)
		defer c.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := c.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "new-file.txt"), []byte("content"), 0o644))

		change := wait(t, changes)
		assert.Contains(t, change.Document.URI, "new-file.txt")
		assert.Contains(t, []domain.ChangeType{domain.ChangeCreated, domain.ChangeUpdated}, change.Type)
	})

	t.Run("detects deletions", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "to-delete.txt")
		require.NoError(t, os.WriteFile(file, []byte("delete me"), 0o644))

		c := New(dir)
		defer c.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := c.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.Remove(file))

		change := wait(t, changes)
		assert.Equal(t, domain.ChangeDeleted, change.Type)
		assert.Equal(t, file, change.Document.URI)
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		changes, err := New("/non/existent/path").Watch(context.Background())
		require.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		c := New(t.TempDir())
		defer c.Close()
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := c.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			if ok {
				for range changes {
				}
			}
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("returns error when connector is closed", func(t *testing.T) {
		c := New(t.TempDir())
		require.NoError(t, c.Close())

		changes, err := c.Watch(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "closed")
	})
}

func TestConnector_Close(t *testing.T) {
	c := New("/tmp/test")
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.Equal(t, "filesystem", c.Type())
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{".hidden", true},
		{".config/file.txt", true},
		{"path/.hidden/file.txt", true},
		{"/a/.b/.c/file", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isHidden(tt.path))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		create     bool
		dir        bool
		op         fsnotify.Op
		wantChange bool
		wantType   domain.ChangeType
	}{
		{name: "create", file: "test.txt", create: true, op: fsnotify.Create, wantChange: true, wantType: domain.ChangeCreated},
		{name: "write", file: "test.txt", create: true, op: fsnotify.Write, wantChange: true, wantType: domain.ChangeUpdated},
		{name: "write and chmod", file: "test.txt", create: true, op: fsnotify.Write | fsnotify.Chmod, wantChange: true, wantType: domain.ChangeUpdated},
		{name: "remove", file: "removed.txt", op: fsnotify.Remove, wantChange: true, wantType: domain.ChangeDeleted},
		{name: "rename", file: "renamed.md", op: fsnotify.Rename, wantChange: true, wantType: domain.ChangeDeleted},
		{name: "chmod only", file: "test.txt", create: true, op: fsnotify.Chmod},
		{name: "directory", file: "testdir.txt", dir: true, op: fsnotify.Create},
		{name: "hidden file", file: ".hidden.txt", create: true, op: fsnotify.Create},
		{name: "unsupported extension", file: "photo.png", create: true, op: fsnotify.Create},
		{name: "create of vanished file", file: "gone.txt", op: fsnotify.Create},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			switch {
			case tt.dir:
				require.NoError(t, os.Mkdir(path, 0o755))
			case tt.create:
				require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
			}

			change := New(dir).handleFsEvent(fsnotify.Event{Name: path, Op: tt.op})

			if !tt.wantChange {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, tt.wantType, change.Type)
			assert.Equal(t, path, change.Document.URI)
			if tt.wantType != domain.ChangeDeleted {
				assert.Equal(t, []byte("content"), change.Document.Content)
			}
		})
	}
}
