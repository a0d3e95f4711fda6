// Package chromem provides a VectorIndex backed by a chromem-go collection.
//
// Entries live in one collection; a second, single-document manifest
// collection carries the dimension, model, next id and per-document
// entry ids so the whole index round-trips through one export file.
package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/codex-cli/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Backend is the identifier reported by Info.
const Backend = "chromem"

const (
	entriesCollection  = "codex_chunks"
	manifestCollection = "codex_manifest"
	manifestID         = "manifest"
)

// Metadata keys stored on each chromem document.
const (
	keyChunkID    = "chunk_id"
	keyDocumentID = "document_id"
	keyPosition   = "position"
	keyStart      = "start"
	keyEnd        = "end"
	keySource     = "source"
	keyMetadata   = "metadata"
)

// errNoEmbedding guards against chromem computing embeddings itself.
// Every document and query carries a precomputed vector.
var errNoEmbedding = errors.New("chromem: embeddings are computed by the embedding service")

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}

// Index wraps a chromem-go database.
type Index struct {
	mu         sync.RWMutex
	cfg        vectorindex.Config
	db         *chromem.DB
	collection *chromem.Collection
	dim        int
	nextID     uint64
	documents  map[string][]uint64
}

// New creates an empty in-memory chromem index.
func New(opts ...vectorindex.Option) (*Index, error) {
	cfg := vectorindex.NewConfig(opts...)
	db := chromem.NewDB()
	collection, err := db.CreateCollection(entriesCollection, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{
		cfg:        cfg,
		db:         db,
		collection: collection,
		dim:        cfg.Dimension,
		documents:  make(map[string][]uint64),
	}, nil
}

// Insert adds entries and assigns monotonic ids. On failure any documents
// already added by this call are removed again.
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

	ids := make([]uint64, len(entries))
	docs := make([]chromem.Document, len(entries))
	keys := make([]string, len(entries))
	for i := range entries {
		ids[i] = idx.nextID + uint64(i)
		doc, err := toDocument(ids[i], entries[i])
		if err != nil {
			return nil, err
		}
		docs[i] = doc
		keys[i] = doc.ID
	}

	if err := idx.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		_ = idx.collection.Delete(context.Background(), nil, nil, keys...)
		return nil, fmt.Errorf("add documents: %w", err)
	}

	idx.dim = dim
	idx.nextID += uint64(len(entries))
	for i := range entries {
		docID := entries[i].Chunk.DocumentID
		idx.documents[docID] = append(idx.documents[docID], ids[i])
	}
	return ids, nil
}

// Search returns the k most similar entries. All entries are scored so
// ties can be ordered by id before truncating.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]domain.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count := idx.collection.Count()
	if k <= 0 || count == 0 {
		return []domain.VectorHit{}, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dim)
	}

	results, err := idx.collection.QueryEmbedding(ctx, query, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	hits := make([]domain.VectorHit, 0, len(results))
	for _, r := range results {
		id, err := strconv.ParseUint(r.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed entry id %q", domain.ErrInvalidInput, r.ID)
		}
		hits = append(hits, domain.VectorHit{ID: id, Score: float64(r.Similarity)})
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

	doc, err := idx.collection.GetByID(context.Background(), strconv.FormatUint(id, 10))
	if err != nil {
		return domain.IndexEntry{}, fmt.Errorf("%w: index entry %d", domain.ErrNotFound, id)
	}
	return fromDocument(id, doc)
}

// DeleteDocument removes a document's entries by metadata filter.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	n := len(idx.documents[documentID])
	if n == 0 {
		return 0, nil
	}
	where := map[string]string{keyDocumentID: documentID}
	if err := idx.collection.Delete(ctx, where, nil); err != nil {
		return 0, fmt.Errorf("delete document %s: %w", documentID, err)
	}
	delete(idx.documents, documentID)
	return n, nil
}

// EntryIDs returns the ids of a document's entries in insertion order.
func (idx *Index) EntryIDs(documentID string) []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return slices.Clone(idx.documents[documentID])
}

// Delete removes entries by id.
func (idx *Index) Delete(ctx context.Context, ids []uint64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	drop := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	var keys []string
	remaining := make(map[string][]uint64, len(idx.documents))
	for docID, owned := range idx.documents {
		kept := owned[:0:0]
		for _, id := range owned {
			if _, ok := drop[id]; ok {
				keys = append(keys, strconv.FormatUint(id, 10))
				continue
			}
			kept = append(kept, id)
		}
		if len(kept) > 0 {
			remaining[docID] = kept
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := idx.collection.Delete(ctx, nil, nil, keys...); err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	idx.documents = remaining
	return len(keys), nil
}

// Size returns the number of entries.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.collection.Count()
}

// Clear removes all entries. The id counter keeps counting.
func (idx *Index) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.db.DeleteCollection(entriesCollection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	collection, err := idx.db.CreateCollection(entriesCollection, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	idx.collection = collection
	idx.dim = idx.cfg.Dimension
	idx.documents = make(map[string][]uint64)
	return nil
}

// Info describes the index.
func (idx *Index) Info() domain.IndexInfo {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return domain.IndexInfo{
		Backend:   Backend,
		Size:      idx.collection.Count(),
		Dimension: idx.dim,
		Model:     idx.cfg.Model,
		NextID:    idx.nextID,
		Documents: len(idx.documents),
	}
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

type manifest struct {
	Version   int                 `json:"version"`
	Dimension int                 `json:"dimension"`
	Model     string              `json:"model"`
	NextID    uint64              `json:"next_id"`
	Documents map[string][]uint64 `json:"documents"`
}

// Save exports both collections to a temp file in the target directory,
// then renames it over path.
func (idx *Index) Save(path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.writeManifest(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*.gob")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpName)

	if err := idx.db.ExportToFile(tmpName, false, "", entriesCollection, manifestCollection); err != nil {
		return fmt.Errorf("export index: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

func (idx *Index) writeManifest() error {
	data, err := json.Marshal(manifest{
		Version:   vectorindex.FormatVersion,
		Dimension: idx.dim,
		Model:     idx.cfg.Model,
		NextID:    idx.nextID,
		Documents: idx.documents,
	})
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	_ = idx.db.DeleteCollection(manifestCollection)
	collection, err := idx.db.CreateCollection(manifestCollection, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("create manifest collection: %w", err)
	}
	return collection.AddDocument(context.Background(), chromem.Document{
		ID:        manifestID,
		Content:   string(data),
		Embedding: []float32{1},
	})
}

// Load replaces the index contents with an exported file. The file is
// imported into a separate database and validated before swapping.
func (idx *Index) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: index file %s", domain.ErrNotFound, path)
		}
		return fmt.Errorf("stat index: %w", err)
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(path, "", entriesCollection, manifestCollection); err != nil {
		return fmt.Errorf("%w: import index %s: %w", domain.ErrInvalidInput, path, err)
	}

	m, err := readManifest(db)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
	}
	if err := vectorindex.CheckFile(idx.cfg, m.Version, m.Dimension, m.Model); err != nil {
		return err
	}

	collection := db.GetCollection(entriesCollection, noEmbedding)
	if collection == nil {
		return fmt.Errorf("%w: %s has no %s collection", domain.ErrInvalidInput, path, entriesCollection)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.db = db
	idx.collection = collection
	idx.nextID = m.NextID
	idx.dim = m.Dimension
	if idx.dim == 0 {
		idx.dim = idx.cfg.Dimension
	}
	if idx.cfg.Model == "" {
		idx.cfg.Model = m.Model
	}
	idx.documents = m.Documents
	if idx.documents == nil {
		idx.documents = make(map[string][]uint64)
	}
	return nil
}

func readManifest(db *chromem.DB) (manifest, error) {
	collection := db.GetCollection(manifestCollection, noEmbedding)
	if collection == nil {
		return manifest{}, errors.New("missing manifest collection")
	}
	doc, err := collection.GetByID(context.Background(), manifestID)
	if err != nil {
		return manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal([]byte(doc.Content), &m); err != nil {
		return manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func toDocument(id uint64, e domain.IndexEntry) (chromem.Document, error) {
	meta, err := vectorindex.EncodeMetadata(e.Chunk.Metadata)
	if err != nil {
		return chromem.Document{}, fmt.Errorf("encode metadata for chunk %s: %w", e.Chunk.ID, err)
	}
	return chromem.Document{
		ID:        strconv.FormatUint(id, 10),
		Content:   e.Chunk.Content,
		Embedding: append([]float32(nil), e.Vector...),
		Metadata: map[string]string{
			keyChunkID:    e.Chunk.ID,
			keyDocumentID: e.Chunk.DocumentID,
			keyPosition:   strconv.Itoa(e.Chunk.Position),
			keyStart:      strconv.Itoa(e.Chunk.Start),
			keyEnd:        strconv.Itoa(e.Chunk.End),
			keySource:     e.Source,
			keyMetadata:   string(meta),
		},
	}, nil
}

func fromDocument(id uint64, doc chromem.Document) (domain.IndexEntry, error) {
	atoi := func(key string) (int, error) {
		v, err := strconv.Atoi(doc.Metadata[key])
		if err != nil {
			return 0, fmt.Errorf("%w: entry %d: bad %s", domain.ErrInvalidInput, id, key)
		}
		return v, nil
	}

	position, err := atoi(keyPosition)
	if err != nil {
		return domain.IndexEntry{}, err
	}
	start, err := atoi(keyStart)
	if err != nil {
		return domain.IndexEntry{}, err
	}
	end, err := atoi(keyEnd)
	if err != nil {
		return domain.IndexEntry{}, err
	}
	meta, err := vectorindex.DecodeMetadata([]byte(doc.Metadata[keyMetadata]))
	if err != nil {
		return domain.IndexEntry{}, fmt.Errorf("%w: entry %d: %w", domain.ErrInvalidInput, id, err)
	}

	return domain.IndexEntry{
		ID:     id,
		Vector: doc.Embedding,
		Chunk: domain.Chunk{
			ID:         doc.Metadata[keyChunkID],
			DocumentID: doc.Metadata[keyDocumentID],
			Position:   position,
			Content:    doc.Content,
			Start:      start,
			End:        end,
			Metadata:   meta,
		},
		Source: doc.Metadata[keySource],
	}, nil
}
