package services

import (
	"time"

	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// nopMetrics is used when no recorder is wired.
type nopMetrics struct{}

var _ driven.Metrics = nopMetrics{}

func (nopMetrics) ObserveRetrieval(time.Duration, int)            {}
func (nopMetrics) ObserveGeneration(string, time.Duration, error) {}
func (nopMetrics) IncFallback(string)                             {}
func (nopMetrics) IncIngest(string)                               {}
func (nopMetrics) IncBusy()                                       {}
