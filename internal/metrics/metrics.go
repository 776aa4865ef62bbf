// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the cargo pipeline.
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//
// Concrete metric systems live in subpackages (prompush, datadog) so the
// generator, cleaner and filter never import them.
package metrics

import "time"

// Metric names emitted by this package.
const (
	StepTotal           = "cargo_step_total"
	StepDurationSeconds = "cargo_step_duration_seconds"
	RecordsTotal        = "cargo_records_total"
	RunsTotal           = "cargo_runs_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// Implementations must be safe for concurrent use.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing
// backend. Call it before any run starts.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Current returns the installed backend.
func Current() Backend { return backend }

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one pipeline step
// (generate, clean, filter).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds used by the pipeline:
//   - "generated", "null_status", "null_kg", "negative_price"
//   - "clean", "removed", "removed_<reason>"
//   - "filtered"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordRun counts one completed pipeline run for job.
func RecordRun(job string) {
	backend.IncCounter(RunsTotal, 1, Labels{
		"job": job,
	})
}
