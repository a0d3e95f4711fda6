package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/codex-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

const (
	// DefaultEmbedBatch is the number of chunks embedded per request.
	DefaultEmbedBatch = 64

	// DefaultWatchDebounce is how long Watch waits for changes to settle.
	DefaultWatchDebounce = 100 * time.Millisecond

	ingestOK     = "ok"
	ingestFailed = "failed"
)

// Normaliser turns raw bytes into a document with plain text content.
// The normaliser registry implements it.
type Normaliser interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error)
}

// IngestDeps are the collaborators of an IngestService.
// Metrics and Connector are optional.
type IngestDeps struct {
	Normaliser Normaliser
	Pipeline   driven.PostProcessorPipeline
	Embedder   driven.EmbeddingService
	Index      driven.VectorIndex
	Documents  driven.DocumentStore
	Metrics    driven.Metrics

	// Connector builds a connector for a directory. Required by
	// IngestDirectory and Watch.
	Connector func(root string) driven.Connector
}

// IngestConfig holds ingestion output settings.
type IngestConfig struct {
	// IndexPath is where the index is saved after a batch. Empty skips saving.
	IndexPath string

	// SummaryPath is where the processed documents summary is written.
	// Empty skips the summary.
	SummaryPath string

	// EmbedBatch is the number of chunks embedded per request.
	EmbedBatch int

	// Debounce is how long Watch waits for changes to settle.
	Debounce time.Duration

	// ReadOnly, when set, is returned by every operation that would change
	// the index or the registry.
	ReadOnly error
}

// IngestService normalises, chunks, embeds and indexes documents.
type IngestService struct {
	deps IngestDeps
	cfg  IngestConfig
}

// NewIngestService creates an ingest service.
func NewIngestService(deps IngestDeps, cfg IngestConfig) (*IngestService, error) {
	switch {
	case deps.Normaliser == nil:
		return nil, fmt.Errorf("%w: normaliser is required", domain.ErrInvalidInput)
	case deps.Pipeline == nil:
		return nil, fmt.Errorf("%w: post-processor pipeline is required", domain.ErrInvalidInput)
	case deps.Embedder == nil:
		return nil, fmt.Errorf("%w: embedding service is required", domain.ErrInvalidInput)
	case deps.Index == nil:
		return nil, fmt.Errorf("%w: vector index is required", domain.ErrInvalidInput)
	case deps.Documents == nil:
		return nil, fmt.Errorf("%w: document store is required", domain.ErrInvalidInput)
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if cfg.EmbedBatch <= 0 {
		cfg.EmbedBatch = DefaultEmbedBatch
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultWatchDebounce
	}
	return &IngestService{deps: deps, cfg: cfg}, nil
}

// Ingest processes every document. Failures are recorded per document
// and never abort the batch. Documents are processed in path order.
func (s *IngestService) Ingest(ctx context.Context, docs map[string][]byte, format domain.Format) domain.IngestReport {
	logger.Section("Ingestion")

	paths := make([]string, 0, len(docs))
	for p := range docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var report domain.IngestReport
	for _, path := range paths {
		if s.cfg.ReadOnly != nil {
			report.Add(domain.IngestStatus{Path: path, Err: s.cfg.ReadOnly})
			s.deps.Metrics.IncIngest(ingestFailed)
			continue
		}
		status := s.ingestOne(ctx, path, docs[path], format)
		if status.OK() {
			logger.Info("Ingested %s: %d chunks", path, status.Chunks)
			s.deps.Metrics.IncIngest(ingestOK)
		} else {
			logger.Warn("Failed to ingest %s: %v", path, status.Err)
			s.deps.Metrics.IncIngest(ingestFailed)
		}
		report.Add(status)
	}

	if len(report.Succeeded()) > 0 {
		s.persist(ctx)
	}
	return report
}

// IngestDirectory ingests every supported file under dir.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string) (domain.IngestReport, error) {
	if s.cfg.ReadOnly != nil {
		return domain.IngestReport{}, s.cfg.ReadOnly
	}
	if s.deps.Connector == nil {
		return domain.IngestReport{}, fmt.Errorf("%w: no connector configured", domain.ErrNotImplemented)
	}
	conn := s.deps.Connector(dir)
	defer conn.Close()

	if err := conn.Validate(ctx); err != nil {
		return domain.IngestReport{}, err
	}

	files := make(map[string][]byte)
	docs, errs := conn.FullSync(ctx)
	for doc := range docs {
		files[doc.URI] = doc.Content
	}
	if err := <-errs; err != nil {
		return domain.IngestReport{}, fmt.Errorf("read %s: %w", dir, err)
	}

	logger.Info("Found %d documents in %s", len(files), dir)
	return s.Ingest(ctx, files, domain.FormatUnknown), nil
}

// Watch re-ingests files under dir as they change until ctx is cancelled.
// Bursts of events are coalesced; onReport is called once per burst.
func (s *IngestService) Watch(ctx context.Context, dir string, onReport func(domain.IngestReport)) error {
	if s.cfg.ReadOnly != nil {
		return s.cfg.ReadOnly
	}
	if s.deps.Connector == nil {
		return fmt.Errorf("%w: no connector configured", domain.ErrNotImplemented)
	}
	conn := s.deps.Connector(dir)
	defer conn.Close()

	changes, err := conn.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching %s for changes", dir)

	pending := make(map[string]domain.RawDocumentChange)
	timer := time.NewTimer(s.cfg.Debounce)
	timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		updated := make(map[string][]byte)
		for uri, change := range pending {
			if change.Type == domain.ChangeDeleted {
				if err := s.Remove(ctx, uri); err != nil && !errors.Is(err, domain.ErrNotFound) {
					logger.Warn("Failed to remove %s: %v", uri, err)
				}
				continue
			}
			updated[uri] = change.Document.Content
		}
		pending = make(map[string]domain.RawDocumentChange)

		report := s.Ingest(ctx, updated, domain.FormatUnknown)
		if len(updated) == 0 {
			s.persist(ctx)
		}
		if onReport != nil {
			onReport(report)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case change, ok := <-changes:
			if !ok {
				flush()
				return nil
			}
			pending[change.Document.URI] = change
			timer.Reset(s.cfg.Debounce)
		case <-timer.C:
			flush()
		}
	}
}

// Remove deletes the document ingested from uri from the index and registry.
func (s *IngestService) Remove(ctx context.Context, uri string) error {
	if s.cfg.ReadOnly != nil {
		return s.cfg.ReadOnly
	}
	doc, err := s.deps.Documents.GetDocumentByURI(ctx, uri)
	if err != nil {
		return err
	}
	n, err := s.deps.Index.DeleteDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("remove %s from index: %w", uri, err)
	}
	if err := s.deps.Documents.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("remove %s from registry: %w", uri, err)
	}
	logger.Info("Removed %s (%d chunks)", uri, n)
	return nil
}

// ingestOne runs one document through the pipeline. A document already
// ingested from the same path keeps its id and has its chunks replaced.
func (s *IngestService) ingestOne(ctx context.Context, path string, content []byte, format domain.Format) domain.IngestStatus {
	status := domain.IngestStatus{Path: path}
	fail := func(err error) domain.IngestStatus {
		status.Err = err
		return status
	}

	raw := &domain.RawDocument{
		URI:      path,
		Format:   format,
		MIMEType: format.MIMEType(),
		Content:  content,
		Metadata: map[string]any{
			"filename": filepath.Base(path),
			"path":     path,
		},
	}
	result, err := s.deps.Normaliser.Normalise(ctx, raw)
	if err != nil {
		return fail(err)
	}
	doc := result.Document
	status.Format = doc.Format

	previous, err := s.deps.Documents.GetDocumentByURI(ctx, path)
	switch {
	case err == nil:
		doc.ID = previous.ID
	case !errors.Is(err, domain.ErrNotFound):
		return fail(fmt.Errorf("look up %s: %w", path, err))
	}

	chunks, err := s.deps.Pipeline.Process(ctx, &doc)
	if err != nil {
		return fail(fmt.Errorf("chunk: %w", err))
	}
	if len(chunks) == 0 {
		return fail(fmt.Errorf("%w: %s produced no chunks", domain.ErrParse, path))
	}

	vectors, err := s.embed(ctx, chunks)
	if err != nil {
		return fail(err)
	}

	var oldIDs []uint64
	if previous != nil {
		oldIDs = s.deps.Index.EntryIDs(doc.ID)
	}

	source := sourceName(&doc)
	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexEntry{Vector: vectors[i], Chunk: chunks[i], Source: source}
	}
	newIDs, err := s.deps.Index.Insert(ctx, entries)
	if err != nil {
		return fail(fmt.Errorf("index: %w", err))
	}

	// The previous version stays indexed and registered until the new one
	// is fully in place.
	if err := s.register(ctx, &doc, chunks); err != nil {
		cleanup := context.WithoutCancel(ctx)
		if _, rbErr := s.deps.Index.Delete(cleanup, newIDs); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		if previous != nil {
			err = errors.Join(err, s.deps.Documents.SaveDocument(cleanup, previous))
		} else {
			err = errors.Join(err, s.deps.Documents.DeleteDocument(cleanup, doc.ID))
		}
		return fail(err)
	}
	if len(oldIDs) > 0 {
		if _, err := s.deps.Index.Delete(context.WithoutCancel(ctx), oldIDs); err != nil {
			return fail(fmt.Errorf("replace %s: %w", path, err))
		}
	}

	status.DocumentID = doc.ID
	status.Chunks = len(chunks)
	return status
}

func (s *IngestService) register(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if err := s.deps.Documents.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if err := s.deps.Documents.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	return nil
}

// embed embeds chunk texts in batches.
func (s *IngestService) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.cfg.EmbedBatch {
		end := min(start+s.cfg.EmbedBatch, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		batch, err := s.deps.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
				domain.ErrEmbeddingUnavailable, len(texts), len(batch))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// persist saves the index and the processed documents summary.
// Failures are logged: the documents are already indexed in memory.
func (s *IngestService) persist(ctx context.Context) {
	if s.cfg.IndexPath != "" {
		if err := s.deps.Index.Save(s.cfg.IndexPath); err != nil {
			logger.Warn("Failed to save index to %s: %v", s.cfg.IndexPath, err)
		} else {
			logger.Debug("Saved index to %s", s.cfg.IndexPath)
		}
	}
	if s.cfg.SummaryPath != "" {
		if err := writeSummary(ctx, s.deps.Documents, s.cfg.SummaryPath); err != nil {
			logger.Warn("Could not save processed documents summary: %v", err)
		} else {
			logger.Debug("Saved processed documents summary to %s", s.cfg.SummaryPath)
		}
	}
}

// sourceName is the display name cited for a document's chunks.
func sourceName(doc *domain.Document) string {
	if name, ok := doc.Metadata["filename"].(string); ok && name != "" {
		return name
	}
	if doc.URI != "" {
		return filepath.Base(doc.URI)
	}
	return doc.Title
}
