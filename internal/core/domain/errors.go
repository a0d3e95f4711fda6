package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown document format or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrParse indicates a document is malformed or its format is unsupported.
	// The document is skipped; other documents in the batch continue.
	ErrParse = errors.New("parse error")

	// Index Errors.

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	// The embedding model changed without a rebuild; the index must be rebuilt.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrModelMismatch indicates a persisted index was built with a different
	// embedding model than the one configured.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// Capability Errors.

	// ErrEmbeddingUnavailable indicates the embedding service cannot be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service cannot be reached
	// or returned an error.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// Conversation Errors.

	// ErrBusy indicates a request is already in flight for the conversation.
	// Callers should retry after the current turn completes.
	ErrBusy = errors.New("conversation busy")

	// ErrTimeout indicates generation exceeded its deadline.
	ErrTimeout = errors.New("generation timed out")
)
