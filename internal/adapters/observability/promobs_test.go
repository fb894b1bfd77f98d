package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/latticebyte/bpu/internal/ports"
)

// newTestPromObs swaps in a fresh Prometheus registry for the duration of
// the test, so repeated NewPromObs calls across test functions don't panic
// on duplicate registration against the global default registry.
func newTestPromObs(t *testing.T) *PromObs {
	t.Helper()
	origReg, origGatherer := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})
	return NewPromObs()
}

func TestFormatFieldsEmpty(t *testing.T) {
	if got := formatFields(nil); got != "" {
		t.Fatalf("formatFields(nil) = %q, want empty", got)
	}
}

func TestFormatFieldsRendersKeyValuePairs(t *testing.T) {
	got := formatFields([]ports.Field{{Key: "tick", Value: 42}, {Key: "kind", Value: "sensor"}})
	if !strings.Contains(got, "tick=42") || !strings.Contains(got, "kind=sensor") {
		t.Fatalf("formatFields output missing expected pairs: %q", got)
	}
}

func TestIncCounterIgnoresUnknownName(t *testing.T) {
	p := newTestPromObs(t)
	// Must not panic on an unregistered name.
	p.IncCounter("bpu_does_not_exist_total", 1)
}

func TestSetGaugeUpdatesRegisteredSeries(t *testing.T) {
	p := newTestPromObs(t)
	p.SetGauge("bpu_evq_depth", 3)
	if got := testutil.ToFloat64(p.gauges["bpu_evq_depth"]); got != 3 {
		t.Fatalf("bpu_evq_depth = %f, want 3", got)
	}
}

func TestIncCounterUpdatesRegisteredSeries(t *testing.T) {
	p := newTestPromObs(t)
	p.IncCounter("bpu_ev_in_total", 2)
	p.IncCounter("bpu_ev_in_total", 3)
	if got := testutil.ToFloat64(p.counters["bpu_ev_in_total"]); got != 5 {
		t.Fatalf("bpu_ev_in_total = %f, want 5", got)
	}
}

func TestObserveLatencyRecordsHistogramSample(t *testing.T) {
	p := newTestPromObs(t)
	p.ObserveLatency("bpu_tick_duration_seconds", 0.002)
	h := p.histos["bpu_tick_duration_seconds"].(prometheus.Histogram)
	if n := testutil.CollectAndCount(h); n != 1 {
		t.Fatalf("expected 1 histogram series, got %d", n)
	}
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write returned error: %v", err)
	}
	if n := m.GetHistogram().GetSampleCount(); n != 1 {
		t.Fatalf("expected 1 histogram sample, got %d", n)
	}
}
