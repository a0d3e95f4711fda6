package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

func newDoc(id, uri string, created time.Time) *domain.Document {
	return &domain.Document{ID: id, URI: uri, Title: uri, Content: "text", CreatedAt: created}
}

func TestDocumentStore_SaveAndLookup(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	require.NoError(t, store.SaveDocument(ctx, newDoc("d1", "/corpus/cv.md", time.Now())))

	doc, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "/corpus/cv.md", doc.URI)

	doc, err = store.GetDocumentByURI(ctx, "/corpus/cv.md")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)

	_, err = store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetDocumentByURI(ctx, "/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.SaveDocument(ctx, nil), domain.ErrInvalidInput)
}

func TestDocumentStore_URIMovesWithUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	require.NoError(t, store.SaveDocument(ctx, newDoc("d1", "/old.md", time.Now())))
	require.NoError(t, store.SaveDocument(ctx, newDoc("d1", "/new.md", time.Now())))

	_, err := store.GetDocumentByURI(ctx, "/old.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	doc, err := store.GetDocumentByURI(ctx, "/new.md")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)
}

func TestDocumentStore_Chunks(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	require.NoError(t, store.SaveDocument(ctx, newDoc("d1", "/cv.md", time.Now())))

	err := store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c2", DocumentID: "d1", Position: 2},
		{ID: "c0", DocumentID: "d1", Position: 0},
		{ID: "c1", DocumentID: "d1", Position: 1},
	})
	require.NoError(t, err)

	chunks, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "c0", chunks[0].ID)
	assert.Equal(t, "c2", chunks[2].ID)

	// Returned slices are copies.
	chunks[0].ID = "mutated"
	again, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "c0", again[0].ID)

	empty, err := store.GetChunks(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	err = store.SaveChunks(ctx, []domain.Chunk{{ID: "x", DocumentID: "orphan"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	require.NoError(t, store.SaveDocument(ctx, newDoc("d1", "/a.md", time.Now())))
	require.NoError(t, store.SaveDocument(ctx, newDoc("d2", "/b.md", time.Now())))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{ID: "c", DocumentID: "d1"}}))

	require.NoError(t, store.DeleteDocument(ctx, "d1"))
	_, err := store.GetDocumentByURI(ctx, "/a.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	require.NoError(t, store.Clear(ctx))
	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentStore_ListDocumentsOrder(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, newDoc("late", "/z.md", base.Add(time.Minute))))
	require.NoError(t, store.SaveDocument(ctx, newDoc("b", "/b.md", base)))
	require.NoError(t, store.SaveDocument(ctx, newDoc("a", "/a.md", base)))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"a", "b", "late"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}
