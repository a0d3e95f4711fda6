// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Turns text into normalised vectors
//   - VectorIndex: Stores vectors and answers nearest-neighbour queries
//   - Generator: Produces answer text (a deterministic template generator always exists)
//   - Normaliser: Extracts text from raw document bytes
//   - PostProcessorPipeline: Splits documents into chunks
//   - PromptStore: Mode and system prompt templates
//   - ConfigStore: Application configuration
//   - DocumentStore: Registry of ingested documents and their chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ConversationStore: Turn persistence. Without it, history lives in memory.
//   - Metrics: Performance instrumentation.
//   - Connector: Directory walking and watching. Without it, only in-memory
//     documents can be ingested.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
