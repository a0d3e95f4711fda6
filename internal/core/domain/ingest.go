package domain

import (
	"errors"
	"fmt"
)

// IngestStatus is the outcome of ingesting one document.
type IngestStatus struct {
	// Path is the source path or id the bytes were supplied under.
	Path string

	// DocumentID is set when the document was ingested.
	DocumentID string

	// Format is the format the document was parsed as.
	Format Format

	// Chunks is the number of chunks indexed.
	Chunks int

	// Err is non-nil when the document failed.
	Err error
}

// OK returns true if the document was ingested.
func (s IngestStatus) OK() bool {
	return s.Err == nil
}

// IngestReport aggregates per-document outcomes of a batch.
type IngestReport struct {
	Statuses []IngestStatus
}

// Add records the outcome of one document.
func (r *IngestReport) Add(s IngestStatus) {
	r.Statuses = append(r.Statuses, s)
}

// Succeeded returns the documents that were ingested.
func (r *IngestReport) Succeeded() []IngestStatus {
	var out []IngestStatus
	for _, s := range r.Statuses {
		if s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Failed returns the documents that failed.
func (r *IngestReport) Failed() []IngestStatus {
	var out []IngestStatus
	for _, s := range r.Statuses {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// TotalChunks returns the number of chunks indexed across the batch.
func (r *IngestReport) TotalChunks() int {
	n := 0
	for _, s := range r.Statuses {
		n += s.Chunks
	}
	return n
}

// Err joins all per-document failures, or returns nil.
func (r *IngestReport) Err() error {
	var errs []error
	for _, s := range r.Statuses {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Path, s.Err))
		}
	}
	return errors.Join(errs...)
}
