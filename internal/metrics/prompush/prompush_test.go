package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"cargopipe/internal/metrics"
)

// counterValue reads the current value of a Counter.
func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// summaryCountSum reads sample count and sum for one label set of a SummaryVec.
func summaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	return m.GetSummary().GetSampleCount(), m.GetSummary().GetSampleSum()
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := NewBackend("cargo", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	return b
}

// TestNewBackend covers the required gateway URL and the job name default.
func TestNewBackend(t *testing.T) {
	t.Parallel()

	if b, err := NewBackend("cargo-job", ""); err == nil || b != nil {
		t.Fatalf("NewBackend without URL = (%v, %v); want (nil, error)", b, err)
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if b.jobName != "cargopipe" {
		t.Fatalf("jobName = %q; want cargopipe", b.jobName)
	}

	b, err = NewBackend("nightly", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if b.jobName != "nightly" || b.gatewayURL != "http://pushgateway:9091" {
		t.Fatalf("backend = %+v", b)
	}
	if b.stepCounter == nil || b.stepDuration == nil || b.recordCounter == nil || b.runCounter == nil {
		t.Fatalf("collectors not initialized: %+v", b)
	}
}

// TestIncCounter routes each metric name to its collector and ignores
// unknown names.
func TestIncCounter(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"job": "cargo", "step": "generate", "status": "success"})
	b.IncCounter(metrics.StepTotal, 2, metrics.Labels{"job": "cargo", "step": "generate", "status": "success"})
	b.IncCounter(metrics.RecordsTotal, 90, metrics.Labels{"job": "cargo", "kind": "removed_price"})
	b.IncCounter(metrics.RecordsTotal, 910, metrics.Labels{"job": "cargo", "kind": "clean"})
	b.IncCounter(metrics.RunsTotal, 1, metrics.Labels{"job": "cargo"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := counterValue(t, b.stepCounter.WithLabelValues("generate", "success")); got != 3 {
		t.Fatalf("step counter = %v; want 3", got)
	}
	if got := counterValue(t, b.recordCounter.WithLabelValues("removed_price")); got != 90 {
		t.Fatalf("removed_price = %v; want 90", got)
	}
	if got := counterValue(t, b.recordCounter.WithLabelValues("clean")); got != 910 {
		t.Fatalf("clean = %v; want 910", got)
	}
	if got := counterValue(t, b.runCounter); got != 1 {
		t.Fatalf("runs = %v; want 1", got)
	}
	if got := counterValue(t, b.stepCounter.WithLabelValues("filter", "failure")); got != 0 {
		t.Fatalf("untouched step counter = %v; want 0", got)
	}
}

// TestZeroBackendIsSafe checks that a Backend without collectors ignores
// every call.
func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "clean", "status": "success"})
	b.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "clean"})
	b.IncCounter(metrics.RunsTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, metrics.Labels{"step": "clean", "status": "success"})
}

// TestObserveHistogram records step durations on the summary and ignores
// other names.
func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "clean", "status": "success"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.5, metrics.Labels{"step": "clean", "status": "success"})
	b.ObserveHistogram("other_metric", 9, metrics.Labels{"step": "clean", "status": "success"})

	count, sum := summaryCountSum(t, b.stepDuration, "clean", "success")
	if count != 2 || sum != 0.75 {
		t.Fatalf("summary = (%d, %v); want (2, 0.75)", count, sum)
	}
}

// TestFlush pushes through the package-level helpers to a fake Pushgateway
// and checks the grouping path and the exposition body.
func TestFlush(t *testing.T) {
	type pushed struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushed, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushed{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("cargo-job", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	orig := metrics.Current()
	metrics.SetBackend(b)
	defer metrics.SetBackend(orig)

	metrics.RecordStep("cargo-job", "generate", nil, 12*time.Millisecond)
	metrics.RecordRow("cargo-job", "generated", 1000)
	metrics.RecordRun("cargo-job")

	if err := metrics.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushed
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() did not send a request to the Pushgateway")
	}

	if got.method != http.MethodPut {
		t.Fatalf("method = %s; want PUT", got.method)
	}
	if !strings.Contains(got.path, "/metrics/job/cargo-job") {
		t.Fatalf("path = %q; want job grouping key", got.path)
	}
	if len(got.body) == 0 {
		t.Fatalf("push body is empty")
	}
}

func BenchmarkIncCounterRecord(b *testing.B) {
	backend, err := NewBackend("cargo", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}
	labels := metrics.Labels{"kind": "clean"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RecordsTotal, 1, labels)
	}
}

func BenchmarkObserveHistogram(b *testing.B) {
	backend, err := NewBackend("cargo", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}
	labels := metrics.Labels{"step": "clean", "status": "success"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.ObserveHistogram(metrics.StepDurationSeconds, 0.123, labels)
	}
}
