package domain

// RawDocument represents opaque bytes handed to ingestion.
// It is the input of normalisation.
type RawDocument struct {
	// URI is the original location (file path or caller-supplied id).
	URI string

	// Format is the declared format, or FormatUnknown to sniff.
	Format Format

	// MIMEType is the content type normalisers are selected by.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-specific key-value pairs.
	Metadata map[string]any
}

// ChangeType represents the kind of change seen by a watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange is a change event from a watched directory.
// Content is empty for deletions.
type RawDocumentChange struct {
	Type     ChangeType
	Document RawDocument
}
