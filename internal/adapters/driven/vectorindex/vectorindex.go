// Package vectorindex holds pieces shared by the VectorIndex backends:
// configuration options, batch validation, scoring and atomic persistence.
//
// Backends live in sub-packages:
//   - memory: brute-force scan over a slice, gob persistence
//   - chromem: chromem-go collection, exported to a single file
package vectorindex

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
)

// FormatVersion is written into every persisted index.
// Load refuses files with a different version.
const FormatVersion = 1

// Config holds the expectations an index enforces.
type Config struct {
	// Dimension is the expected vector size. Zero lets the first insert decide.
	Dimension int

	// Model is the embedding model identifier recorded on save and checked on load.
	Model string
}

// Option configures an index.
type Option func(*Config)

// WithDimension fixes the vector dimension up front.
func WithDimension(dim int) Option {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithModel records the embedding model the index is built with.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// NewConfig applies options.
func NewConfig(opts ...Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// CheckBatch verifies every vector in entries has the same length as dim,
// or as the first entry when dim is zero. It returns the batch dimension.
func CheckBatch(entries []domain.IndexEntry, dim int) (int, error) {
	for i := range entries {
		n := len(entries[i].Vector)
		if n == 0 {
			return 0, fmt.Errorf("%w: entry %d has an empty vector", domain.ErrInvalidInput, i)
		}
		if dim == 0 {
			dim = n
		}
		if n != dim {
			return 0, fmt.Errorf("%w: entry %d has dimension %d, index has %d",
				domain.ErrDimensionMismatch, i, n, dim)
		}
	}
	return dim, nil
}

// CheckFile compares a persisted index against the configured expectations.
func CheckFile(cfg Config, version, dim int, model string) error {
	if version != FormatVersion {
		return fmt.Errorf("%w: unsupported index format version %d", domain.ErrInvalidInput, version)
	}
	if cfg.Dimension > 0 && dim > 0 && dim != cfg.Dimension {
		return fmt.Errorf("%w: index file has dimension %d, expected %d (rebuild the index)",
			domain.ErrDimensionMismatch, dim, cfg.Dimension)
	}
	if cfg.Model != "" && model != "" && model != cfg.Model {
		return fmt.Errorf("%w: index was built with %q, configured model is %q (rebuild the index)",
			domain.ErrModelMismatch, model, cfg.Model)
	}
	return nil
}

// Dot returns the dot product, which is the cosine similarity of
// L2-normalised vectors.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// SortHits orders hits by descending score, then ascending id.
func SortHits(hits []domain.VectorHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
}

// EncodeMetadata serialises chunk metadata for persistence.
// Arbitrary values survive as their JSON form.
func EncodeMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// DecodeMetadata reverses EncodeMetadata.
func DecodeMetadata(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteAtomic writes to a temp file in the target directory and renames it
// over path, so readers never see a partial file.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

// CountDocuments returns the number of distinct parent documents.
func CountDocuments(entries []domain.IndexEntry) int {
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		seen[entries[i].Chunk.DocumentID] = struct{}{}
	}
	return len(seen)
}
