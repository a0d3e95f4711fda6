package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RetrievedChunk is a chunk returned by retrieval with its similarity score.
type RetrievedChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query.
	Score float64

	// Source is the display name of the parent document.
	Source string
}

// RetrievalResult is ordered highest score first.
type RetrievalResult []RetrievedChunk

// Sources returns the distinct sources in result order.
func (r RetrievalResult) Sources() []string {
	seen := make(map[string]bool, len(r))
	sources := make([]string, 0, len(r))
	for i := range r {
		if seen[r[i].Source] {
			continue
		}
		seen[r[i].Source] = true
		sources = append(sources, r[i].Source)
	}
	return sources
}

// DedupeMode selects how chunks from the same document are treated.
type DedupeMode string

// Available dedupe modes.
const (
	// DedupeAll keeps every chunk that clears the score floor.
	DedupeAll DedupeMode = "all"

	// DedupeBestPerDocument keeps only the highest-scoring chunk per document.
	DedupeBestPerDocument DedupeMode = "best_per_document"

	// DedupeMaxPerDocument keeps at most N chunks per document.
	DedupeMaxPerDocument DedupeMode = "max_per_document"
)

// DedupePolicy is the explicit per-document deduplication policy.
type DedupePolicy struct {
	// Mode is the dedupe strategy.
	Mode DedupeMode

	// MaxPerDocument is the cap used by DedupeMaxPerDocument.
	MaxPerDocument int
}

// Limit returns the maximum number of chunks allowed per document.
// Zero means unlimited.
func (p DedupePolicy) Limit() int {
	switch p.Mode {
	case DedupeBestPerDocument:
		return 1
	case DedupeMaxPerDocument:
		if p.MaxPerDocument > 0 {
			return p.MaxPerDocument
		}
		return 1
	default:
		return 0
	}
}

// String returns the config representation of the policy.
func (p DedupePolicy) String() string {
	if p.Mode == DedupeMaxPerDocument {
		return fmt.Sprintf("%s:%d", p.Mode, p.Limit())
	}
	if p.Mode == "" {
		return string(DedupeAll)
	}
	return string(p.Mode)
}

// ParseDedupePolicy parses "all", "best_per_document" or "max_per_document:N".
func ParseDedupePolicy(s string) (DedupePolicy, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return DedupePolicy{Mode: DedupeAll}, nil
	}

	name, arg, hasArg := strings.Cut(s, ":")
	switch DedupeMode(name) {
	case DedupeAll, DedupeBestPerDocument:
		if hasArg {
			return DedupePolicy{}, fmt.Errorf("%w: dedupe policy %q takes no argument", ErrInvalidInput, name)
		}
		return DedupePolicy{Mode: DedupeMode(name)}, nil
	case DedupeMaxPerDocument:
		n := 1
		if hasArg {
			v, err := strconv.Atoi(arg)
			if err != nil || v < 1 {
				return DedupePolicy{}, fmt.Errorf("%w: invalid per-document limit %q", ErrInvalidInput, arg)
			}
			n = v
		}
		return DedupePolicy{Mode: DedupeMaxPerDocument, MaxPerDocument: n}, nil
	default:
		return DedupePolicy{}, fmt.Errorf("%w: unknown dedupe policy %q", ErrInvalidInput, s)
	}
}
