package postprocessors

import (
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/postprocessors/chunker"
	"github.com/custodia-labs/codex-cli/internal/postprocessors/metadata"
)

// DefaultPipeline lists the processors run on every ingested document.
var DefaultPipeline = []string{"chunker", "metadata"}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("metadata", buildMetadata)
}

// NewDefaultPipeline builds the default pipeline from chunk settings.
func NewDefaultPipeline(settings domain.ChunkSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(DefaultPipeline, map[string]map[string]any{
		"chunker": {
			"chunk_size": settings.Size,
			"overlap":    settings.Overlap,
		},
	})
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
//   - boundary_window (int): Characters searched for a break (default: 100)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if window, ok := getIntFromConfig(cfg, "boundary_window"); ok {
		opts = append(opts, chunker.WithBoundaryWindow(window))
	}

	p := chunker.New(opts...)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func buildMetadata(_ map[string]any) (driven.PostProcessor, error) {
	return metadata.New(), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
