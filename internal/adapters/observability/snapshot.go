package observability

import (
	"fmt"

	"github.com/latticebyte/bpu/internal/domain"
	"github.com/latticebyte/bpu/internal/ports"
)

// SnapshotEmitter throttles the stats snapshot line to at most once per
// interval, pushing every counter into the Prometheus gauges/counters and
// writing a single plain-text line to a log sink. It is driven from the
// tick goroutine only — no separate ticking goroutine exists, matching the
// single-owner state model.
type SnapshotEmitter struct {
	obs         *PromObs
	log         ports.LogSink
	intervalMs  uint32
	lastEmitMs  uint32
	everEmitted bool
	prev        domain.Snapshot
}

// NewSnapshotEmitter returns an emitter that writes at most one line per
// intervalMs to log, pushing metrics into obs on every call regardless of
// the throttle (the Prometheus series should always reflect the latest
// values; only the log line is rate-limited).
func NewSnapshotEmitter(obs *PromObs, log ports.LogSink, intervalMs uint32) *SnapshotEmitter {
	return &SnapshotEmitter{obs: obs, log: log, intervalMs: intervalMs}
}

// Emit pushes snap into the Prometheus series unconditionally, and writes
// the plain-text snapshot line to the log sink if at least intervalMs has
// elapsed since the last line (or none has been written yet). It returns
// the number of bytes written to the log sink (zero if throttled), which
// the caller adds to its live Stats.LogBytesTotal before the next snapshot
// is taken — Emit only ever sees a frozen copy, so it cannot update the
// counter itself.
func (e *SnapshotEmitter) Emit(nowMs uint32, snap domain.Snapshot) int {
	e.pushMetrics(snap)

	if e.everEmitted && domain.Elapsed(nowMs, e.lastEmitMs) < e.intervalMs {
		return 0
	}
	e.lastEmitMs = nowMs
	e.everEmitted = true

	if e.log == nil {
		return 0
	}
	line := formatSnapshotLine(snap)
	n, _ := e.log.Write([]byte(line))
	return n
}

// pushMetrics pushes the point-in-time gauges directly, adds the
// since-last-call delta of every monotonic counter field via IncCounter (so
// a Prometheus counter never goes backwards even across a process-local
// uint32 wraparound), and observes this tick's work duration into the
// latency histogram.
func (e *SnapshotEmitter) pushMetrics(s domain.Snapshot) {
	if e.obs == nil {
		e.prev = s
		return
	}
	e.obs.SetGauge("bpu_evq_depth", float64(s.EvQDepth))
	e.obs.SetGauge("bpu_jobq_depth", float64(s.JobQDepth))
	e.obs.SetGauge("bpu_dirty_mask", float64(s.Dirty))
	e.obs.SetGauge("bpu_uart_bytes", float64(s.UartBytes))
	e.obs.SetGauge("bpu_out_bytes_total", float64(s.OutBytesTotal))
	e.obs.SetGauge("bpu_log_bytes_total", float64(s.LogBytesTotal))
	e.obs.SetGauge("bpu_work_us_last", float64(s.WorkUsLast))
	e.obs.SetGauge("bpu_work_us_max", float64(s.WorkUsMax))

	p := e.prev
	e.obs.IncCounter("bpu_ev_in_total", float64(domain.Elapsed(s.EvIn, p.EvIn)))
	e.obs.IncCounter("bpu_ev_out_total", float64(domain.Elapsed(s.EvOut, p.EvOut)))
	e.obs.IncCounter("bpu_ev_merge_total", float64(domain.Elapsed(s.EvMerge, p.EvMerge)))
	e.obs.IncCounter("bpu_ev_drop_total", float64(domain.Elapsed(s.EvDrop, p.EvDrop)))
	e.obs.IncCounter("bpu_job_in_total", float64(domain.Elapsed(s.JobIn, p.JobIn)))
	e.obs.IncCounter("bpu_job_out_total", float64(domain.Elapsed(s.JobOut, p.JobOut)))
	e.obs.IncCounter("bpu_job_merge_total", float64(domain.Elapsed(s.JobMerge, p.JobMerge)))
	e.obs.IncCounter("bpu_job_drop_total", float64(domain.Elapsed(s.JobDrop, p.JobDrop)))
	e.obs.IncCounter("bpu_uart_sent_total", float64(domain.Elapsed(s.UartSent, p.UartSent)))
	e.obs.IncCounter("bpu_uart_skip_budget_total", float64(domain.Elapsed(s.UartSkipBudget, p.UartSkipBudget)))
	e.obs.IncCounter("bpu_uart_skip_txbuf_total", float64(domain.Elapsed(s.UartSkipTxbuf, p.UartSkipTxbuf)))
	e.obs.IncCounter("bpu_flush_try_total", float64(domain.Elapsed(s.FlushTry, p.FlushTry)))
	e.obs.IncCounter("bpu_flush_ok_total", float64(domain.Elapsed(s.FlushOk, p.FlushOk)))
	e.obs.IncCounter("bpu_flush_partial_total", float64(domain.Elapsed(s.FlushPartial, p.FlushPartial)))
	e.obs.IncCounter("bpu_flush_full_total", float64(domain.Elapsed(s.FlushFull, p.FlushFull)))
	e.obs.IncCounter("bpu_pick_sensor_total", float64(domain.Elapsed(s.PickSensor, p.PickSensor)))
	e.obs.IncCounter("bpu_pick_hb_total", float64(domain.Elapsed(s.PickHB, p.PickHB)))
	e.obs.IncCounter("bpu_pick_telem_total", float64(domain.Elapsed(s.PickTelem, p.PickTelem)))
	e.obs.IncCounter("bpu_pick_aged_total", float64(domain.Elapsed(s.PickAged, p.PickAged)))
	e.obs.IncCounter("bpu_aged_hit_sensor_total", float64(domain.Elapsed(s.AgedHitSensor, p.AgedHitSensor)))
	e.obs.IncCounter("bpu_aged_hit_hb_total", float64(domain.Elapsed(s.AgedHitHB, p.AgedHitHB)))
	e.obs.IncCounter("bpu_aged_hit_telem_total", float64(domain.Elapsed(s.AgedHitTelem, p.AgedHitTelem)))
	e.obs.IncCounter("bpu_degrade_drop_total", float64(domain.Elapsed(s.DegradeDrop, p.DegradeDrop)))
	e.obs.IncCounter("bpu_degrade_requeue_total", float64(domain.Elapsed(s.DegradeRequeue, p.DegradeRequeue)))

	e.obs.ObserveLatency("bpu_tick_duration_seconds", float64(s.WorkUsLast)/1e6)

	e.prev = s
}

// formatSnapshotLine renders every counter in the snapshot's field list as
// a single space-separated key=value line, terminated with a newline.
func formatSnapshotLine(s domain.Snapshot) string {
	return fmt.Sprintf(
		"tick=%d ev_in=%d ev_out=%d ev_merge=%d ev_drop=%d evQ=%d "+
			"job_in=%d job_out=%d job_merge=%d job_drop=%d jobQ=%d dirty=%016x "+
			"uart_sent=%d uart_skip_budget=%d uart_skip_txbuf=%d uart_bytes=%d "+
			"flush_try=%d flush_ok=%d flush_partial=%d flush_full=%d "+
			"pick_sensor=%d pick_hb=%d pick_telem=%d pick_aged=%d "+
			"aged_hit_sensor=%d aged_hit_hb=%d aged_hit_telem=%d "+
			"degrade_drop=%d degrade_requeue=%d "+
			"work_us_last=%d work_us_max=%d out_bytes_total=%d log_bytes_total=%d\n",
		s.Tick, s.EvIn, s.EvOut, s.EvMerge, s.EvDrop, s.EvQDepth,
		s.JobIn, s.JobOut, s.JobMerge, s.JobDrop, s.JobQDepth, s.Dirty,
		s.UartSent, s.UartSkipBudget, s.UartSkipTxbuf, s.UartBytes,
		s.FlushTry, s.FlushOk, s.FlushPartial, s.FlushFull,
		s.PickSensor, s.PickHB, s.PickTelem, s.PickAged,
		s.AgedHitSensor, s.AgedHitHB, s.AgedHitTelem,
		s.DegradeDrop, s.DegradeRequeue,
		s.WorkUsLast, s.WorkUsMax, s.OutBytesTotal, s.LogBytesTotal,
	)
}
