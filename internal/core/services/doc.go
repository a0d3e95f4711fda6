// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The query path is Retriever then Orchestrator, with Conversations
// keeping one Orchestrator per conversation id. The ingest path is
// IngestService, which normalises, chunks, embeds and indexes documents.
package services
