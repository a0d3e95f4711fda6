package domain

import "time"

// Document represents a normalised personal document.
// It is immutable once chunked; re-ingestion replaces it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path or caller-supplied id).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	// Chunk offsets index into this text.
	Content string

	// Format is the format the document was parsed as.
	Format Format

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk represents a bounded contiguous span of a document.
// Chunks are created once per document during ingestion and never mutated.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the sequence index within the document.
	Position int

	// Content is the text of this chunk.
	Content string

	// Start is the rune offset of the first character in Document.Content.
	Start int

	// End is the rune offset one past the last character in Document.Content.
	End int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Len returns the length of the span in runes.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Overlaps returns the number of runes shared with the following chunk.
func (c Chunk) Overlaps(next Chunk) int {
	if next.Start >= c.End {
		return 0
	}
	return c.End - next.Start
}
