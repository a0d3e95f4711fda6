package domain

// IndexEntry is a vector plus the chunk metadata it was computed from.
// The vector index assigns ID on insert; callers leave it zero.
type IndexEntry struct {
	// ID is the internal id, assigned monotonically by the index.
	ID uint64

	// Vector is the L2-normalised embedding.
	Vector []float32

	// Chunk is the chunk the vector represents.
	Chunk Chunk

	// Source is the display name of the parent document (URI or title).
	Source string
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched entry.
	ID uint64

	// Score is the cosine similarity (dot product of normalised vectors).
	Score float64
}

// IndexInfo describes the state of a vector index.
type IndexInfo struct {
	// Backend is the index implementation (e.g. "memory", "chromem").
	Backend string

	// Size is the number of entries.
	Size int

	// Dimension is the established vector dimension (0 when empty and unset).
	Dimension int

	// Model is the identifier of the embedding model used to build the index.
	Model string

	// NextID is the id the next inserted entry will receive.
	NextID uint64

	// Documents is the number of distinct parent documents.
	Documents int
}
