// Package metrics defines the observation points of the view pipeline.
// The session reports fetches, recompositions and enrichment outcomes to a
// Recorder; the pure pipeline stages never touch metrics.
package metrics

import "time"

// Recorder receives pipeline observations. Implementations must be safe
// for concurrent use, since enrichment lookups report from their own
// goroutines.
type Recorder interface {
	// ObserveFetch records one collaborator page fetch and its latency
	ObserveFetch(resource string, success bool, elapsed time.Duration)

	// ObserveCompose records a recomputation of the visible view
	ObserveCompose(resource string, rows, total int)

	// ObserveResolution records one enrichment lookup outcome: "hit",
	// "resolved", "notfound" or "failure"
	ObserveResolution(resource, outcome string)
}

// NopRecorder discards every observation. It is the default when no
// recorder is configured.
type NopRecorder struct{}

func (NopRecorder) ObserveFetch(string, bool, time.Duration) {}

func (NopRecorder) ObserveCompose(string, int, int) {}

func (NopRecorder) ObserveResolution(string, string) {}
