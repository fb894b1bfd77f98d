// Package observability implements ports.Observability on top of
// github.com/prometheus/client_golang, using a dictionary-of-metrics
// pattern keyed by name rather than one field per series, so the
// counters/gauges/histograms the core's stats block names can be pushed
// generically from a single snapshot.
package observability

import (
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/latticebyte/bpu/internal/ports"
)

// PromObs registers and updates the Prometheus series mirroring
// domain.Stats, and writes structured info/error/critical log lines through
// the standard logger. The periodic snapshot line is written by
// SnapshotEmitter to its own log sink, not by PromObs.
type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs constructs and registers every metric the core can report.
// Counter/gauge names mirror the stats field names so a dashboard author
// can cross-reference the log snapshot line directly.
func NewPromObs() *PromObs {
	counterNames := []string{
		"bpu_ev_in_total", "bpu_ev_out_total", "bpu_ev_merge_total", "bpu_ev_drop_total",
		"bpu_job_in_total", "bpu_job_out_total", "bpu_job_merge_total", "bpu_job_drop_total",
		"bpu_uart_sent_total", "bpu_uart_skip_budget_total", "bpu_uart_skip_txbuf_total",
		"bpu_flush_try_total", "bpu_flush_ok_total", "bpu_flush_partial_total", "bpu_flush_full_total",
		"bpu_pick_sensor_total", "bpu_pick_hb_total", "bpu_pick_telem_total", "bpu_pick_aged_total",
		"bpu_aged_hit_sensor_total", "bpu_aged_hit_hb_total", "bpu_aged_hit_telem_total",
		"bpu_degrade_drop_total", "bpu_degrade_requeue_total",
	}
	gaugeNames := []string{
		"bpu_evq_depth", "bpu_jobq_depth", "bpu_dirty_mask",
		"bpu_uart_bytes", "bpu_out_bytes_total", "bpu_log_bytes_total",
		"bpu_work_us_last", "bpu_work_us_max",
	}

	p := &PromObs{
		counters: make(map[string]prometheus.Counter, len(counterNames)),
		gauges:   make(map[string]prometheus.Gauge, len(gaugeNames)),
		histos:   make(map[string]prometheus.Observer, 1),
	}

	for _, name := range counterNames {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: name + " (monotonic, reset only at boot)"})
		prometheus.MustRegister(c)
		p.counters[name] = c
	}
	for _, name := range gaugeNames {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: name})
		prometheus.MustRegister(g)
		p.gauges[name] = g
	}

	tickLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bpu_tick_duration_seconds",
		Help:    "Per-tick work duration.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
	})
	prometheus.MustRegister(tickLatency)
	p.histos["bpu_tick_duration_seconds"] = tickLatency

	return p
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	s := ""
	for _, f := range fields {
		s += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	return s
}
