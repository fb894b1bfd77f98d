// Package lowering implements the event→job lowering stage: drains the
// event queue exhaustively each tick, tags each event's aging status for
// observability, and lowers it into a job admitted to the job queue with
// keep-last coalescing.
package lowering

import (
	"github.com/latticebyte/bpu/internal/adapters/eventqueue"
	"github.com/latticebyte/bpu/internal/adapters/jobqueue"
	"github.com/latticebyte/bpu/internal/domain"
)

// AgedMs is the default aging threshold: an event at least this old when
// drained is "aged," purely for observability — aging never alters routing
// in this version.
const AgedMs = 200

// Stage lowers drained events into jobs using a fixed aging threshold.
type Stage struct {
	agedMs uint32
}

// New returns a Stage using agedMs as the aging threshold.
func New(agedMs uint32) *Stage {
	return &Stage{agedMs: agedMs}
}

// Run drains evq exhaustively, lowering every event into jobq. evq and jobq
// each own their respective ev_{in,out,merge,drop} / job_{in,out,merge,drop}
// counters; Run records only the lowering-specific pick_aged / aged_hit_*
// counters. now is the current tick's now_ms, used both for the aging
// comparison and as the job's t_ms: lowering stamps t_ms := now_ms, not the
// originating event's timestamp.
func (s *Stage) Run(now uint32, evq *eventqueue.Queue, jobq *jobqueue.Queue, stats *domain.Stats) {
	for {
		e, ok := evq.Pop()
		if !ok {
			break
		}

		if domain.Elapsed(now, e.TMs) >= s.agedMs {
			stats.PickAged++
			switch e.Type {
			case domain.KindSensor:
				stats.AgedHitSensor++
			case domain.KindHB:
				stats.AgedHitHB++
			case domain.KindTelem:
				stats.AgedHitTelem++
			}
		}

		j := domain.LowerEvent(e, now)
		jobq.PushCoalesce(j)
	}
}
