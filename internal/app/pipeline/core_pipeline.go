// Package pipeline wires the event queue, job queue, source scheduler,
// lowering stage, and flush loop into the single per-tick entrypoint the
// core runs from one goroutine: no separate ingest goroutine, no locking
// across components. The only concurrency boundary is the channel external
// event sources (e.g. an MQTT command subscriber) hand events off through.
package pipeline

import (
	"github.com/latticebyte/bpu/internal/adapters/eventqueue"
	"github.com/latticebyte/bpu/internal/adapters/flush"
	"github.com/latticebyte/bpu/internal/adapters/jobqueue"
	"github.com/latticebyte/bpu/internal/adapters/lowering"
	"github.com/latticebyte/bpu/internal/adapters/observability"
	"github.com/latticebyte/bpu/internal/adapters/sources"
	"github.com/latticebyte/bpu/internal/domain"
	"github.com/latticebyte/bpu/internal/ports"
)

// cmdChanCapacity bounds the channel external EventSources deposit into;
// the core drains it exhaustively once per tick, so it only needs to
// absorb the burst between two ticks.
const cmdChanCapacity = 64

// Core owns every per-tick component and the single channel boundary where
// asynchronous producers hand off into the tick goroutine.
type Core struct {
	stats *domain.Stats
	clock ports.Clock

	evq       *eventqueue.Queue
	jobq      *jobqueue.Queue
	scheduler *sources.Scheduler
	lowerer   *lowering.Stage
	flusher   *flush.Loop
	snapshot  *observability.SnapshotEmitter

	sink ports.ByteSink
	obs  ports.Observability

	cmdSources []ports.EventSource
	cmdCh      chan domain.Event
}

// New wires a Core from tuning, a ByteSink, an Observability backend, a log
// sink for the throttled snapshot line, a clock for per-tick work timing,
// and zero or more external event sources (e.g. an MQTT command
// subscriber).
func New(tuning ports.Tuning, f *flush.Loop, sink ports.ByteSink, obs *observability.PromObs, logSink ports.LogSink, clock ports.Clock, cmdSources ...ports.EventSource) *Core {
	stats := &domain.Stats{}
	return &Core{
		stats:      stats,
		clock:      clock,
		evq:        eventqueue.New(tuning.EvtQN, tuning.CoalesceWindowMs, stats),
		jobq:       jobqueue.New(tuning.JobQN, stats),
		scheduler:  sources.NewSchedulerWithPeriods(tuning.SensorMs, tuning.HBMs, tuning.TelemMs),
		lowerer:    lowering.New(tuning.AgedMs),
		flusher:    f,
		snapshot:   observability.NewSnapshotEmitter(obs, logSink, uint32(tuning.SnapshotInterval.Milliseconds())),
		sink:       sink,
		obs:        obs,
		cmdSources: cmdSources,
		cmdCh:      make(chan domain.Event, cmdChanCapacity),
	}
}

// Start launches every external event source, handing each the shared
// command channel. Returns the first error encountered, having already
// started every source before it (sources are independent; a failure in
// one does not prevent the others from being attempted).
func (c *Core) Start() error {
	var firstErr error
	for _, s := range c.cmdSources {
		if err := s.Start(c.cmdCh); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stop tears down every external event source.
func (c *Core) Stop() error {
	var firstErr error
	for _, s := range c.cmdSources {
		if err := s.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Tick runs one full pass: fire pseudo-sources, drain external commands,
// lower drained events into jobs, flush the job queue against the byte
// budget, and emit the throttled observability snapshot. now is the
// millisecond timestamp this tick is running at.
func (c *Core) Tick(now uint32) {
	startUs := c.clock.NowUS()

	c.stats.Tick++
	c.scheduler.Fire(now, c.evq, c.stats)
	c.drainCommands(now)
	c.lowerer.Run(now, c.evq, c.jobq, c.stats)
	c.flusher.Run(c.jobq, c.sink, c.stats)

	c.stats.RecordWorkUs(domain.Elapsed(c.clock.NowUS(), startUs))

	snap := domain.Snapshot{
		Stats:     *c.stats,
		EvQDepth:  c.evq.Len(),
		JobQDepth: c.jobq.Len(),
		Dirty:     c.jobq.DirtyMask(),
	}
	if n := c.snapshot.Emit(now, snap); n > 0 {
		c.stats.LogBytesTotal += uint64(n)
	}
}

// drainCommands exhaustively empties the external command channel into the
// event queue. It never blocks: a source that cannot keep its message
// delivered on a full channel already dropped it upstream. Each event's
// t_ms is overwritten with the core's own clock reading at drain time
// rather than whatever the source stamped it with — an EventSource runs on
// its own goroutine against its own time source (e.g. wall-clock
// UnixMilli for MQTT), which isn't comparable to the tick driver's
// process-relative counter that every wraparound comparison in this core
// assumes.
func (c *Core) drainCommands(now uint32) {
	for {
		select {
		case ev := <-c.cmdCh:
			ev.TMs = now
			c.evq.PushCoalesce(ev)
		default:
			return
		}
	}
}

// Stats returns the live counters block, for read-only inspection (e.g. a
// CLI "stats" subcommand).
func (c *Core) Stats() domain.Stats {
	return *c.stats
}
