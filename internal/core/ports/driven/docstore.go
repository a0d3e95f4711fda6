package driven

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// DocumentStore persists the registry of ingested documents and their chunks.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks, replacing any previously stored for the
	// same documents. Nothing is changed when it fails.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByURI retrieves the document ingested from a URI.
	// Returns domain.ErrNotFound if absent.
	GetDocumentByURI(ctx context.Context, uri string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents ordered by ingestion time.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Clear removes every document and chunk.
	Clear(ctx context.Context) error
}
