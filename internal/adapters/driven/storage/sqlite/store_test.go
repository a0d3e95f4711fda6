package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testDocument(id, uri string, created time.Time) *domain.Document {
	return &domain.Document{
		ID:        id,
		URI:       uri,
		Title:     filepath.Base(uri),
		Content:   "I enjoy debugging. I use Python and Go.",
		Format:    domain.FormatMarkdown,
		Metadata:  map[string]any{"filename": filepath.Base(uri)},
		CreatedAt: created,
	}
}

func testChunks(docID string) []domain.Chunk {
	return []domain.Chunk{
		{ID: docID + "-1", DocumentID: docID, Position: 1, Content: "I use Python and Go.", Start: 19, End: 39},
		{ID: docID + "-0", DocumentID: docID, Position: 0, Content: "I enjoy debugging.", Start: 0, End: 18,
			Metadata: map[string]any{"chunk_index": 0}},
	}
}

// ==================== Store ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.DocumentStore().SaveDocument(context.Background(),
		testDocument("d1", "/corpus/cv.md", time.Now())))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	docs, err := second.DocumentStore().ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestNewStore_InvalidDirectory(t *testing.T) {
	_, err := NewStore("/dev/null/codex")
	assert.Error(t, err)
}

// ==================== Document Store ====================

func TestDocumentStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()
	created := time.Date(2025, 3, 1, 10, 30, 0, 123456789, time.UTC)

	require.NoError(t, docs.SaveDocument(ctx, testDocument("d1", "/corpus/cv.md", created)))

	got, err := docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "/corpus/cv.md", got.URI)
	assert.Equal(t, "cv.md", got.Title)
	assert.Equal(t, domain.FormatMarkdown, got.Format)
	assert.Equal(t, "cv.md", got.Metadata["filename"])
	assert.True(t, created.Equal(got.CreatedAt))

	byURI, err := docs.GetDocumentByURI(ctx, "/corpus/cv.md")
	require.NoError(t, err)
	assert.Equal(t, "d1", byURI.ID)
}

func TestDocumentStore_NotFound(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()

	_, err := docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = docs.GetDocumentByURI(ctx, "/missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := docs.GetChunks(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDocumentStore_SaveNil(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	assert.ErrorIs(t, docs.SaveDocument(context.Background(), nil), domain.ErrInvalidInput)
}

func TestDocumentStore_Upsert(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()

	doc := testDocument("d1", "/corpus/cv.md", time.Now())
	require.NoError(t, docs.SaveDocument(ctx, doc))

	doc.Title = "Curriculum Vitae"
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Curriculum Vitae", got.Title)

	all, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDocumentStore_Chunks(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()

	require.NoError(t, docs.SaveDocument(ctx, testDocument("d1", "/corpus/cv.md", time.Now())))
	require.NoError(t, docs.SaveChunks(ctx, testChunks("d1")))

	chunks, err := docs.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].Position, "chunks are ordered by position")
	assert.Equal(t, "I enjoy debugging.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 18, chunks[0].End)
	assert.EqualValues(t, 0, chunks[0].Metadata["chunk_index"])
	assert.Nil(t, chunks[1].Metadata)
}

func TestDocumentStore_SaveChunksReplaces(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()

	require.NoError(t, docs.SaveDocument(ctx, testDocument("d1", "/corpus/cv.md", time.Now())))
	require.NoError(t, docs.SaveDocument(ctx, testDocument("d2", "/corpus/notes.md", time.Now())))
	require.NoError(t, docs.SaveChunks(ctx, testChunks("d1")))
	require.NoError(t, docs.SaveChunks(ctx, testChunks("d2")))

	replacement := []domain.Chunk{{ID: "d1-v2", DocumentID: "d1", Content: "I lead a platform team.", End: 23}}
	require.NoError(t, docs.SaveChunks(ctx, replacement))

	chunks, err := docs.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "d1-v2", chunks[0].ID)

	other, err := docs.GetChunks(ctx, "d2")
	require.NoError(t, err)
	assert.Len(t, other, 2, "other documents keep their chunks")
}

func TestDocumentStore_ChunkRequiresDocument(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()

	err := docs.SaveChunks(context.Background(), testChunks("orphan"))
	assert.Error(t, err, "foreign keys are enforced")
}

func TestDocumentStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()

	require.NoError(t, docs.SaveDocument(ctx, testDocument("d1", "/corpus/cv.md", time.Now())))
	require.NoError(t, docs.SaveChunks(ctx, testChunks("d1")))

	require.NoError(t, docs.DeleteDocument(ctx, "d1"))

	_, err := docs.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := docs.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDocumentStore_ListOrderedByIngestion(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, docs.SaveDocument(ctx, testDocument("b", "/corpus/notes.txt", base.Add(time.Hour))))
	require.NoError(t, docs.SaveDocument(ctx, testDocument("a", "/corpus/cv.md", base)))

	all, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestDocumentStore_Clear(t *testing.T) {
	ctx := context.Background()
	docs := setupTestStore(t).DocumentStore()

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("d%d", i)
		require.NoError(t, docs.SaveDocument(ctx, testDocument(id, "/corpus/"+id+".md", time.Now())))
		require.NoError(t, docs.SaveChunks(ctx, testChunks(id)))
	}

	require.NoError(t, docs.Clear(ctx))

	all, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// ==================== Conversation Store ====================

func TestConversationStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	conv := setupTestStore(t).ConversationStore()
	at := time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)

	user := domain.Turn{Role: domain.RoleUser, Text: "what languages do you use", Mode: domain.ModeInterview, CreatedAt: at}
	answer := domain.Turn{
		Role:      domain.RoleAssistant,
		Text:      "I use Python and Go.",
		Mode:      domain.ModeInterview,
		Degraded:  true,
		CreatedAt: at.Add(time.Second),
		Citations: []domain.Citation{
			{DocumentID: "d1", ChunkID: "c3", Source: "cv.md", Score: 0.82},
		},
	}
	require.NoError(t, conv.AppendTurn(ctx, "default", user))
	require.NoError(t, conv.AppendTurn(ctx, "default", answer))

	turns, err := conv.Turns(ctx, "default")
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, user.Text, turns[0].Text)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Empty(t, turns[0].Citations)
	assert.False(t, turns[0].Degraded)

	assert.Equal(t, answer.Citations, turns[1].Citations)
	assert.True(t, turns[1].Degraded)
	assert.Equal(t, domain.ModeInterview, turns[1].Mode)
	assert.True(t, answer.CreatedAt.Equal(turns[1].CreatedAt))
}

func TestConversationStore_UnknownConversation(t *testing.T) {
	conv := setupTestStore(t).ConversationStore()

	turns, err := conv.Turns(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestConversationStore_EmptyID(t *testing.T) {
	conv := setupTestStore(t).ConversationStore()
	err := conv.AppendTurn(context.Background(), "", domain.Turn{Role: domain.RoleUser, Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConversationStore_ResetAndList(t *testing.T) {
	ctx := context.Background()
	conv := setupTestStore(t).ConversationStore()

	require.NoError(t, conv.AppendTurn(ctx, "work", domain.Turn{Role: domain.RoleUser, Text: "a"}))
	require.NoError(t, conv.AppendTurn(ctx, "home", domain.Turn{Role: domain.RoleUser, Text: "b"}))
	require.NoError(t, conv.AppendTurn(ctx, "work", domain.Turn{Role: domain.RoleUser, Text: "c"}))

	ids, err := conv.Conversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "home"}, ids)

	require.NoError(t, conv.Reset(ctx, "work"))

	turns, err := conv.Turns(ctx, "work")
	require.NoError(t, err)
	assert.Empty(t, turns)

	turns, err = conv.Turns(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, turns, 1)

	ids, err = conv.Conversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, ids)
}

func TestConversationStore_OrderPreserved(t *testing.T) {
	ctx := context.Background()
	conv := setupTestStore(t).ConversationStore()
	at := time.Now()

	for i := 0; i < 20; i++ {
		// Identical timestamps: order must come from insertion.
		require.NoError(t, conv.AppendTurn(ctx, "c", domain.Turn{Role: domain.RoleUser, Text: fmt.Sprint(i), CreatedAt: at}))
	}

	turns, err := conv.Turns(ctx, "c")
	require.NoError(t, err)
	require.Len(t, turns, 20)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprint(i), turn.Text)
	}
}
