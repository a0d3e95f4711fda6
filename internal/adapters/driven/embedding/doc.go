// Package embedding holds helpers shared by the embedding service adapters.
//
// Adapters live in sub-packages:
//   - ollama: local Ollama server (/api/embed)
//   - openai: OpenAI embeddings API
//   - hashing: deterministic offline lexical embedder
//   - cached: LRU decorator for any EmbeddingService
package embedding
