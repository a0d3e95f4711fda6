package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/codex-cli/internal/logger"
)

// Ensure KnowledgeBase implements the interface.
var _ driving.KnowledgeBaseService = (*KnowledgeBase)(nil)

// KnowledgeBase manages the vector index and document registry together.
type KnowledgeBase struct {
	index     driven.VectorIndex
	documents driven.DocumentStore
	indexPath string

	// readOnly is set when the persisted index belongs to another
	// embedding model and must not be overwritten.
	readOnly error
}

// NewKnowledgeBase creates a knowledge base service. indexPath is the
// default location for Save and Load.
func NewKnowledgeBase(index driven.VectorIndex, documents driven.DocumentStore, indexPath string) *KnowledgeBase {
	return &KnowledgeBase{index: index, documents: documents, indexPath: indexPath}
}

// Info describes the index. Documents counts the registry, which also
// includes documents whose chunks were evicted from a cleared index.
func (kb *KnowledgeBase) Info(ctx context.Context) (domain.IndexInfo, error) {
	info := kb.index.Info()
	docs, err := kb.documents.ListDocuments(ctx)
	if err != nil {
		return info, fmt.Errorf("list documents: %w", err)
	}
	info.Documents = max(info.Documents, len(docs))
	return info, nil
}

// Documents lists the ingested documents in ingestion order.
func (kb *KnowledgeBase) Documents(ctx context.Context) ([]domain.Document, error) {
	return kb.documents.ListDocuments(ctx)
}

// Save persists the index.
func (kb *KnowledgeBase) Save(_ context.Context, path string) error {
	path, err := kb.path(path)
	if err != nil {
		return err
	}
	if kb.readOnly != nil && path == kb.indexPath {
		return kb.readOnly
	}
	if err := kb.index.Save(path); err != nil {
		return err
	}
	logger.Info("Saved %d entries to %s", kb.index.Size(), path)
	return nil
}

// Load replaces the index with a persisted one.
func (kb *KnowledgeBase) Load(_ context.Context, path string) error {
	path, err := kb.path(path)
	if err != nil {
		return err
	}
	if err := kb.index.Load(path); err != nil {
		return err
	}
	logger.Info("Loaded %d entries from %s", kb.index.Size(), path)
	return nil
}

// Clear removes every entry and document. The index is saved afterwards
// when a default path is configured, so the next run starts empty too.
func (kb *KnowledgeBase) Clear(ctx context.Context) error {
	if err := kb.index.Clear(); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if err := kb.documents.Clear(ctx); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	if kb.indexPath != "" {
		if err := kb.index.Save(kb.indexPath); err != nil {
			return fmt.Errorf("save cleared index: %w", err)
		}
	}
	logger.Info("Knowledge base cleared")
	return nil
}

// Open loads the index from the configured path at startup. A missing file
// leaves the index empty. A file built with a different embedding model or
// dimension reports stale so the caller can ask for a re-ingest.
//
// When fallback is false the embedding model really changed: the file is
// replaced with an empty index and the document registry is cleared, in
// that order, so a crash in between never leaves registry entries whose
// chunks survive on disk. When fallback is true a stand-in embedder is
// active for this run only, so nothing persisted is touched; the caller
// must not ingest until the configured embedder is back.
func (kb *KnowledgeBase) Open(ctx context.Context, fallback bool) (stale bool, err error) {
	if kb.indexPath == "" {
		return false, nil
	}
	err = kb.index.Load(kb.indexPath)
	switch {
	case err == nil:
		logger.Debug("Loaded %d entries from %s", kb.index.Size(), kb.indexPath)
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	case errors.Is(err, domain.ErrModelMismatch), errors.Is(err, domain.ErrDimensionMismatch):
		if fallback {
			logger.Warn("Leaving index at %s untouched while the fallback embedder is active: %v", kb.indexPath, err)
			kb.readOnly = fmt.Errorf("%w: the index at %s was built with another embedding model; "+
				"changes are disabled until the configured embedding provider is reachable",
				domain.ErrEmbeddingUnavailable, kb.indexPath)
			return true, nil
		}
		logger.Warn("Discarding index at %s: %v", kb.indexPath, err)
		if err := kb.index.Clear(); err != nil {
			return true, fmt.Errorf("clear index: %w", err)
		}
		if err := kb.index.Save(kb.indexPath); err != nil {
			return true, fmt.Errorf("replace index: %w", err)
		}
		if err := kb.documents.Clear(ctx); err != nil {
			return true, fmt.Errorf("clear documents: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("open index: %w", err)
	}
}

// ReadOnly returns the reason the persisted index must not be changed, or
// nil. It is set by Open.
func (kb *KnowledgeBase) ReadOnly() error {
	return kb.readOnly
}

func (kb *KnowledgeBase) path(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if kb.indexPath == "" {
		return "", fmt.Errorf("%w: no index path configured", domain.ErrInvalidInput)
	}
	return kb.indexPath, nil
}
