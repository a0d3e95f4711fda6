// Package domain defines the core business entities for Codex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A normalised personal document
//   - Chunk: A bounded span of a document used as the unit of retrieval
//   - IndexEntry: A vector plus the chunk it represents
//   - RetrievedChunk: A chunk returned by retrieval with its score
//   - Turn: One user or assistant message in a conversation
//   - Mode: The response style used for generation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
