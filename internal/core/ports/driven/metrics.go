package driven

import "time"

// Metrics records performance measurements for the query and ingest paths.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// ObserveRetrieval records a retrieval's latency and result count.
	ObserveRetrieval(d time.Duration, results int)

	// ObserveGeneration records a generation call's latency by model.
	ObserveGeneration(model string, d time.Duration, err error)

	// IncFallback counts an answer produced without the primary generator.
	IncFallback(reason string)

	// IncIngest counts a document ingestion outcome ("ok" or "failed").
	IncIngest(status string)

	// IncBusy counts a query rejected because another was in flight.
	IncBusy()
}

// Fallback reasons reported to Metrics.IncFallback.
const (
	FallbackNoDocuments = "no_documents"
	FallbackNoContext   = "no_context"
	FallbackEmbedding   = "embedding_unavailable"
	FallbackGeneration  = "generation_failed"
	FallbackTimeout     = "timeout"
)
