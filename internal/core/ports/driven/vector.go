package driven

import (
	"context"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// VectorIndex stores embedding vectors with chunk metadata and answers
// exact cosine nearest-neighbour queries.
//
// Implementations hold a single-writer lock: searches never observe a
// partially applied Insert.
type VectorIndex interface {
	// Insert adds a batch of entries atomically and returns their assigned ids.
	// The first insert fixes the index dimension. If any vector's length differs
	// from it, nothing is inserted and the error wraps domain.ErrDimensionMismatch.
	Insert(ctx context.Context, entries []domain.IndexEntry) ([]uint64, error)

	// Search returns at most k hits ordered by descending score.
	// Ties are broken by insertion order (lower id first).
	// k <= 0 or an empty index yields an empty result.
	Search(ctx context.Context, query []float32, k int) ([]domain.VectorHit, error)

	// Entry returns a stored entry by id.
	// Returns domain.ErrNotFound for unknown ids.
	Entry(id uint64) (domain.IndexEntry, error)

	// Save writes the index to path atomically (temp file then rename).
	Save(path string) error

	// Load replaces the index contents with the file at path.
	// When the index was built with an expected dimension or model, a
	// mismatching file fails with domain.ErrDimensionMismatch or
	// domain.ErrModelMismatch and the index is left unchanged.
	Load(path string) error

	// DeleteDocument removes every entry whose chunk belongs to documentID
	// and returns how many were removed. Remaining ids are unchanged.
	DeleteDocument(ctx context.Context, documentID string) (int, error)

	// EntryIDs returns the ids of documentID's entries in insertion order.
	EntryIDs(documentID string) []uint64

	// Delete removes the entries with the given ids and returns how many
	// were removed. Unknown ids are ignored.
	Delete(ctx context.Context, ids []uint64) (int, error)

	// Size returns the number of entries.
	Size() int

	// Clear removes all entries. The id counter is not reset.
	Clear() error

	// Info describes the index.
	Info() domain.IndexInfo

	// Close releases resources.
	Close() error
}
