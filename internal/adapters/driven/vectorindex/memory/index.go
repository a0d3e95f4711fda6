// Package memory provides an exact brute-force VectorIndex held in memory
// and persisted with encoding/gob.
package memory

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/custodia-labs/codex-cli/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Backend is the identifier reported by Info.
const Backend = "memory"

// Index scans every vector on each search. Suitable for personal corpora
// of up to tens of thousands of chunks.
type Index struct {
	mu      sync.RWMutex
	cfg     vectorindex.Config
	dim     int
	nextID  uint64
	entries []domain.IndexEntry
	byID    map[uint64]int
}

// New creates an empty index.
func New(opts ...vectorindex.Option) *Index {
	cfg := vectorindex.NewConfig(opts...)
	return &Index{
		cfg:  cfg,
		dim:  cfg.Dimension,
		byID: make(map[uint64]int),
	}
}

// Insert adds entries atomically and assigns monotonic ids.
func (idx *Index) Insert(ctx context.Context, entries []domain.IndexEntry) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	dim, err := vectorindex.CheckBatch(entries, idx.dim)
	if err != nil {
		return nil, err
	}
	idx.dim = dim

	ids := make([]uint64, len(entries))
	for i := range entries {
		e := entries[i]
		e.ID = idx.nextID
		e.Vector = append([]float32(nil), e.Vector...)
		idx.byID[e.ID] = len(idx.entries)
		idx.entries = append(idx.entries, e)
		ids[i] = e.ID
		idx.nextID++
	}
	return ids, nil
}

// Search returns the k most similar entries.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]domain.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.entries) == 0 {
		return []domain.VectorHit{}, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dim)
	}

	hits := make([]domain.VectorHit, len(idx.entries))
	for i := range idx.entries {
		hits[i] = domain.VectorHit{
			ID:    idx.entries[i].ID,
			Score: vectorindex.Dot(query, idx.entries[i].Vector),
		}
	}
	vectorindex.SortHits(hits)

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Entry returns a stored entry by id.
func (idx *Index) Entry(id uint64) (domain.IndexEntry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pos, ok := idx.byID[id]
	if !ok {
		return domain.IndexEntry{}, fmt.Errorf("%w: index entry %d", domain.ErrNotFound, id)
	}
	return idx.entries[pos], nil
}

// DeleteDocument removes a document's entries, preserving insertion order.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	return idx.remove(ctx, func(e *domain.IndexEntry) bool {
		return e.Chunk.DocumentID == documentID
	})
}

// EntryIDs returns the ids of a document's entries in insertion order.
func (idx *Index) EntryIDs(documentID string) []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var ids []uint64
	for i := range idx.entries {
		if idx.entries[i].Chunk.DocumentID == documentID {
			ids = append(ids, idx.entries[i].ID)
		}
	}
	return ids
}

// Delete removes entries by id, preserving insertion order.
func (idx *Index) Delete(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, ctx.Err()
	}
	drop := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return idx.remove(ctx, func(e *domain.IndexEntry) bool {
		_, ok := drop[e.ID]
		return ok
	})
}

func (idx *Index) remove(ctx context.Context, match func(*domain.IndexEntry) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.entries[:0]
	removed := 0
	for i := range idx.entries {
		if match(&idx.entries[i]) {
			removed++
			continue
		}
		kept = append(kept, idx.entries[i])
	}
	if removed == 0 {
		return 0, nil
	}
	for i := len(kept); i < len(idx.entries); i++ {
		idx.entries[i] = domain.IndexEntry{}
	}
	idx.entries = kept
	idx.byID = make(map[uint64]int, len(kept))
	for i := range kept {
		idx.byID[kept[i].ID] = i
	}
	return removed, nil
}

// Size returns the number of entries.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Clear removes all entries. The id counter keeps counting.
func (idx *Index) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = nil
	idx.byID = make(map[uint64]int)
	idx.dim = idx.cfg.Dimension
	return nil
}

// Info describes the index.
func (idx *Index) Info() domain.IndexInfo {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return domain.IndexInfo{
		Backend:   Backend,
		Size:      len(idx.entries),
		Dimension: idx.dim,
		Model:     idx.cfg.Model,
		NextID:    idx.nextID,
		Documents: vectorindex.CountDocuments(idx.entries),
	}
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// snapshot is the gob-encoded file layout.
type snapshot struct {
	Version   int
	Dimension int
	Model     string
	NextID    uint64
	Entries   []record
}

type record struct {
	ID         uint64
	Vector     []float32
	ChunkID    string
	DocumentID string
	Position   int
	Content    string
	Start      int
	End        int
	Source     string
	Metadata   []byte
}

// Save writes the index to path atomically.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	snap := snapshot{
		Version:   vectorindex.FormatVersion,
		Dimension: idx.dim,
		Model:     idx.cfg.Model,
		NextID:    idx.nextID,
		Entries:   make([]record, len(idx.entries)),
	}
	for i := range idx.entries {
		r, err := toRecord(idx.entries[i])
		if err != nil {
			idx.mu.RUnlock()
			return err
		}
		snap.Entries[i] = r
	}
	idx.mu.RUnlock()

	return vectorindex.WriteAtomic(path, func(w io.Writer) error {
		if err := gob.NewEncoder(w).Encode(&snap); err != nil {
			return fmt.Errorf("encode index: %w", err)
		}
		return nil
	})
}

// Load replaces the index contents with the file at path.
func (idx *Index) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: index file %s", domain.ErrNotFound, path)
		}
		return fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("%w: decode index %s: %w", domain.ErrInvalidInput, path, err)
	}
	if err := vectorindex.CheckFile(idx.cfg, snap.Version, snap.Dimension, snap.Model); err != nil {
		return err
	}

	entries := make([]domain.IndexEntry, len(snap.Entries))
	byID := make(map[uint64]int, len(snap.Entries))
	for i, r := range snap.Entries {
		e, err := fromRecord(r)
		if err != nil {
			return fmt.Errorf("%w: entry %d: %w", domain.ErrInvalidInput, r.ID, err)
		}
		entries[i] = e
		byID[e.ID] = i
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = entries
	idx.byID = byID
	idx.nextID = snap.NextID
	idx.dim = snap.Dimension
	if idx.dim == 0 {
		idx.dim = idx.cfg.Dimension
	}
	if idx.cfg.Model == "" {
		idx.cfg.Model = snap.Model
	}
	return nil
}

func toRecord(e domain.IndexEntry) (record, error) {
	meta, err := vectorindex.EncodeMetadata(e.Chunk.Metadata)
	if err != nil {
		return record{}, fmt.Errorf("encode metadata for entry %d: %w", e.ID, err)
	}
	return record{
		ID:         e.ID,
		Vector:     e.Vector,
		ChunkID:    e.Chunk.ID,
		DocumentID: e.Chunk.DocumentID,
		Position:   e.Chunk.Position,
		Content:    e.Chunk.Content,
		Start:      e.Chunk.Start,
		End:        e.Chunk.End,
		Source:     e.Source,
		Metadata:   meta,
	}, nil
}

func fromRecord(r record) (domain.IndexEntry, error) {
	meta, err := vectorindex.DecodeMetadata(r.Metadata)
	if err != nil {
		return domain.IndexEntry{}, err
	}
	return domain.IndexEntry{
		ID:     r.ID,
		Vector: r.Vector,
		Chunk: domain.Chunk{
			ID:         r.ChunkID,
			DocumentID: r.DocumentID,
			Position:   r.Position,
			Content:    r.Content,
			Start:      r.Start,
			End:        r.End,
			Metadata:   meta,
		},
		Source: r.Source,
	}, nil
}
