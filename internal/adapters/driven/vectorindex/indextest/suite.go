// Package indextest is a conformance suite run against every VectorIndex backend.
package indextest

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codex-cli/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Factory builds a fresh, empty index.
type Factory func(t *testing.T, opts ...vectorindex.Option) driven.VectorIndex

// Unit returns v scaled to unit length.
func Unit(v ...float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	n := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i := range v {
		out[i] = v[i] / n
	}
	return out
}

// Entry builds an entry for a chunk of document docID.
func Entry(docID string, pos int, vec []float32) domain.IndexEntry {
	return domain.IndexEntry{
		Vector: vec,
		Chunk: domain.Chunk{
			ID:         fmt.Sprintf("%s-%d", docID, pos),
			DocumentID: docID,
			Position:   pos,
			Content:    fmt.Sprintf("chunk %d of %s", pos, docID),
			Start:      pos * 10,
			End:        pos*10 + 10,
			Metadata:   map[string]any{"chunk_index": pos},
		},
		Source: docID + ".md",
	}
}

// Run executes the suite.
func Run(t *testing.T, newIndex Factory) {
	ctx := context.Background()

	t.Run("cosine ranking", func(t *testing.T) {
		idx := newIndex(t)
		ids, err := idx.Insert(ctx, []domain.IndexEntry{
			Entry("cv", 0, Unit(1, 0, 0)),
			Entry("cv", 1, Unit(0, 1, 0)),
			Entry("notes", 0, Unit(1, 1, 0)),
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1, 2}, ids)

		hits, err := idx.Search(ctx, Unit(1, 0, 0), 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, uint64(0), hits[0].ID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
		assert.Equal(t, uint64(2), hits[1].ID)
		assert.InDelta(t, 1/math.Sqrt2, hits[1].Score, 1e-5)
	})

	t.Run("ties broken by insertion order", func(t *testing.T) {
		idx := newIndex(t)
		_, err := idx.Insert(ctx, []domain.IndexEntry{
			Entry("a", 0, Unit(0, 1)),
			Entry("b", 0, Unit(1, 0)),
			Entry("c", 0, Unit(1, 0)),
			Entry("d", 0, Unit(1, 0)),
		})
		require.NoError(t, err)

		hits, err := idx.Search(ctx, Unit(1, 0), 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, []uint64{1, 2, 3}, []uint64{hits[0].ID, hits[1].ID, hits[2].ID})
	})

	t.Run("search bounds", func(t *testing.T) {
		idx := newIndex(t)

		hits, err := idx.Search(ctx, Unit(1, 0), 5)
		require.NoError(t, err)
		assert.Empty(t, hits, "empty index")

		_, err = idx.Insert(ctx, []domain.IndexEntry{Entry("a", 0, Unit(1, 0)), Entry("a", 1, Unit(0, 1))})
		require.NoError(t, err)

		hits, err = idx.Search(ctx, Unit(1, 0), 0)
		require.NoError(t, err)
		assert.Empty(t, hits, "k = 0")

		hits, err = idx.Search(ctx, Unit(1, 0), 10)
		require.NoError(t, err)
		assert.Len(t, hits, 2, "k larger than size")
		assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

		_, err = idx.Search(ctx, Unit(1, 0, 0), 1)
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("dimension mismatch leaves index unchanged", func(t *testing.T) {
		idx := newIndex(t)
		_, err := idx.Insert(ctx, []domain.IndexEntry{Entry("a", 0, Unit(1, 0, 0))})
		require.NoError(t, err)

		_, err = idx.Insert(ctx, []domain.IndexEntry{
			Entry("b", 0, Unit(0, 1, 0)),
			Entry("b", 1, Unit(1, 0)),
		})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
		assert.Equal(t, 1, idx.Size())

		ids, err := idx.Insert(ctx, []domain.IndexEntry{Entry("c", 0, Unit(0, 0, 1))})
		require.NoError(t, err)
		assert.Equal(t, []uint64{1}, ids, "failed batch consumed no ids")
	})

	t.Run("configured dimension", func(t *testing.T) {
		idx := newIndex(t, vectorindex.WithDimension(3))
		_, err := idx.Insert(ctx, []domain.IndexEntry{Entry("a", 0, Unit(1, 0))})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
		assert.Equal(t, 3, idx.Info().Dimension)
	})

	t.Run("entry lookup", func(t *testing.T) {
		idx := newIndex(t)
		ids, err := idx.Insert(ctx, []domain.IndexEntry{Entry("cv", 4, Unit(1, 2))})
		require.NoError(t, err)

		e, err := idx.Entry(ids[0])
		require.NoError(t, err)
		assert.Equal(t, "cv-4", e.Chunk.ID)
		assert.Equal(t, "cv", e.Chunk.DocumentID)
		assert.Equal(t, "chunk 4 of cv", e.Chunk.Content)
		assert.Equal(t, 40, e.Chunk.Start)
		assert.Equal(t, 50, e.Chunk.End)
		assert.Equal(t, "cv.md", e.Source)

		_, err = idx.Entry(999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("clear keeps id counter", func(t *testing.T) {
		idx := newIndex(t)
		_, err := idx.Insert(ctx, []domain.IndexEntry{Entry("a", 0, Unit(1, 0)), Entry("a", 1, Unit(0, 1))})
		require.NoError(t, err)

		require.NoError(t, idx.Clear())
		assert.Equal(t, 0, idx.Size())

		ids, err := idx.Insert(ctx, []domain.IndexEntry{Entry("b", 0, Unit(1, 0, 0))})
		require.NoError(t, err)
		assert.Equal(t, []uint64{2}, ids)
		assert.Equal(t, 3, idx.Info().Dimension, "dimension is re-established after clear")
	})

	t.Run("delete document", func(t *testing.T) {
		idx := newIndex(t)
		ids, err := idx.Insert(ctx, []domain.IndexEntry{
			Entry("a", 0, Unit(1, 0)),
			Entry("b", 0, Unit(1, 1)),
			Entry("a", 1, Unit(0, 1)),
		})
		require.NoError(t, err)

		n, err := idx.DeleteDocument(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 1, idx.Size())
		assert.Equal(t, 1, idx.Info().Documents)

		_, err = idx.Entry(ids[0])
		assert.ErrorIs(t, err, domain.ErrNotFound)
		e, err := idx.Entry(ids[1])
		require.NoError(t, err)
		assert.Equal(t, "b", e.Chunk.DocumentID)

		hits, err := idx.Search(ctx, Unit(1, 0), 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, ids[1], hits[0].ID)

		n, err = idx.DeleteDocument(ctx, "missing")
		require.NoError(t, err)
		assert.Zero(t, n)

		next, err := idx.Insert(ctx, []domain.IndexEntry{Entry("c", 0, Unit(1, 0))})
		require.NoError(t, err)
		assert.Equal(t, []uint64{3}, next, "ids are never reused")
	})

	t.Run("delete by id", func(t *testing.T) {
		idx := newIndex(t)
		old, err := idx.Insert(ctx, []domain.IndexEntry{
			Entry("a", 0, Unit(1, 0)),
			Entry("b", 0, Unit(1, 1)),
		})
		require.NoError(t, err)
		fresh, err := idx.Insert(ctx, []domain.IndexEntry{
			Entry("a", 0, Unit(0, 1)),
			Entry("a", 1, Unit(1, 0)),
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{old[0], fresh[0], fresh[1]}, idx.EntryIDs("a"))
		assert.Empty(t, idx.EntryIDs("missing"))

		n, err := idx.Delete(ctx, []uint64{old[0], 99})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, fresh, idx.EntryIDs("a"))
		assert.Equal(t, []uint64{old[1]}, idx.EntryIDs("b"))
		assert.Equal(t, 3, idx.Size())

		n, err = idx.Delete(ctx, []uint64{old[1]})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, 1, idx.Info().Documents)

		n, err = idx.Delete(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("entry ids survive save and load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.db")
		idx := newIndex(t)
		ids, err := idx.Insert(ctx, []domain.IndexEntry{
			Entry("a", 0, Unit(1, 0)),
			Entry("b", 0, Unit(0, 1)),
			Entry("a", 1, Unit(1, 1)),
		})
		require.NoError(t, err)
		require.NoError(t, idx.Save(path))

		loaded := newIndex(t)
		require.NoError(t, loaded.Load(path))
		assert.Equal(t, []uint64{ids[0], ids[2]}, loaded.EntryIDs("a"))
	})

	t.Run("info", func(t *testing.T) {
		idx := newIndex(t, vectorindex.WithModel("hashing-v1-2"))
		_, err := idx.Insert(ctx, []domain.IndexEntry{
			Entry("a", 0, Unit(1, 0)),
			Entry("a", 1, Unit(0, 1)),
			Entry("b", 0, Unit(1, 1)),
		})
		require.NoError(t, err)

		info := idx.Info()
		assert.NotEmpty(t, info.Backend)
		assert.Equal(t, 3, info.Size)
		assert.Equal(t, 2, info.Dimension)
		assert.Equal(t, "hashing-v1-2", info.Model)
		assert.Equal(t, uint64(3), info.NextID)
		assert.Equal(t, 2, info.Documents)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.db")
		idx := newIndex(t, vectorindex.WithModel("m1"))
		_, err := idx.Insert(ctx, []domain.IndexEntry{
			Entry("cv", 0, Unit(1, 0, 0)),
			Entry("cv", 1, Unit(0, 1, 0)),
			Entry("notes", 0, Unit(1, 1, 0)),
		})
		require.NoError(t, err)
		require.NoError(t, idx.Save(path))

		loaded := newIndex(t, vectorindex.WithModel("m1"))
		require.NoError(t, loaded.Load(path))
		assert.Equal(t, 3, loaded.Size())
		assert.Equal(t, uint64(3), loaded.Info().NextID)

		want, err := idx.Search(ctx, Unit(1, 0, 0), 3)
		require.NoError(t, err)
		got, err := loaded.Search(ctx, Unit(1, 0, 0), 3)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.InDelta(t, want[i].Score, got[i].Score, 1e-5)
		}

		e, err := loaded.Entry(2)
		require.NoError(t, err)
		assert.Equal(t, "notes", e.Chunk.DocumentID)
		assert.Equal(t, "notes.md", e.Source)
		assert.EqualValues(t, 0, e.Chunk.Metadata["chunk_index"])

		ids, err := loaded.Insert(ctx, []domain.IndexEntry{Entry("new", 0, Unit(0, 0, 1))})
		require.NoError(t, err)
		assert.Equal(t, []uint64{3}, ids, "next id survives persistence")
	})

	t.Run("load rejects mismatched model and dimension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.db")
		idx := newIndex(t, vectorindex.WithModel("m1"))
		_, err := idx.Insert(ctx, []domain.IndexEntry{Entry("a", 0, Unit(1, 0))})
		require.NoError(t, err)
		require.NoError(t, idx.Save(path))

		other := newIndex(t, vectorindex.WithModel("m2"))
		_, err = other.Insert(ctx, []domain.IndexEntry{Entry("keep", 0, Unit(1, 0))})
		require.NoError(t, err)
		assert.ErrorIs(t, other.Load(path), domain.ErrModelMismatch)
		assert.Equal(t, 1, other.Size(), "failed load leaves index unchanged")

		wide := newIndex(t, vectorindex.WithDimension(3))
		assert.ErrorIs(t, wide.Load(path), domain.ErrDimensionMismatch)
	})

	t.Run("load missing file", func(t *testing.T) {
		idx := newIndex(t)
		err := idx.Load(filepath.Join(t.TempDir(), "missing.db"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("concurrent search during insert", func(t *testing.T) {
		idx := newIndex(t)
		_, err := idx.Insert(ctx, []domain.IndexEntry{Entry("seed", 0, Unit(1, 0))})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					_, _ = idx.Insert(ctx, []domain.IndexEntry{
						Entry(fmt.Sprintf("w%d", w), 2*i, Unit(1, float32(i))),
						Entry(fmt.Sprintf("w%d", w), 2*i+1, Unit(float32(i), 1)),
					})
					hits, err := idx.Search(ctx, Unit(1, 0), 100)
					assert.NoError(t, err)
					assert.Equal(t, 1, len(hits)%2, "searches never see half a batch")
				}
			}(w)
		}
		wg.Wait()
		assert.Equal(t, 81, idx.Size())
	})
}
