// Package eventqueue implements the time-windowed coalescing event queue:
// a bounded FIFO that merges same-kind arrivals within COALESCE_WINDOW_MS,
// except CMD events, which are never merged.
package eventqueue

import (
	"github.com/latticebyte/bpu/internal/adapters/ring"
	"github.com/latticebyte/bpu/internal/domain"
)

// Outcome classifies what PushCoalesce did with an incoming event —
// exactly one of {Pushed, Merged, Dropped}; every admitted input increments
// exactly one of these counters, in addition to the unconditional ev_in
// increment.
type Outcome int

const (
	Pushed Outcome = iota
	Merged
	Dropped
)

// Queue is the bounded event FIFO with merge-last-within-window coalescing.
// It owns the ev_{in,out,merge,drop} counters directly — push increments
// ev_in on entry, pop increments ev_out on success — keeping
// ev_in = ev_out + ev_merge + ev_drop + evQ_current true by construction
// rather than by caller discipline.
type Queue struct {
	r        *ring.Ring[domain.Event]
	windowMs uint32
	stats    *domain.Stats
}

// New builds a Queue with the given capacity and coalesce window, recording
// its counters into stats.
func New(capacity int, windowMs uint32, stats *domain.Stats) *Queue {
	return &Queue{r: ring.New[domain.Event](capacity), windowMs: windowMs, stats: stats}
}

// Len returns the current depth.
func (q *Queue) Len() int { return q.r.Count() }

// PushCoalesce admits e. For a coalescing kind, it scans in insertion order
// for the first existing event of the same kind within the window and
// overwrites it in place (Merged); otherwise it pushes (Pushed) or, if the
// queue is full, reports Dropped. At most one predecessor can ever match,
// so the first match found is the only one.
func (q *Queue) PushCoalesce(e domain.Event) Outcome {
	q.stats.EvIn++

	if e.Type.Coalesces() {
		merged := false
		q.r.Each(func(i int, existing domain.Event) bool {
			if existing.Type != e.Type {
				return true
			}
			if domain.Elapsed(e.TMs, existing.TMs) <= q.windowMs {
				q.r.Update(i, e)
				merged = true
				return false
			}
			return true
		})
		if merged {
			q.stats.EvMerge++
			return Merged
		}
	}

	if q.r.Push(e) {
		return Pushed
	}
	q.stats.EvDrop++
	return Dropped
}

// Pop removes and returns the oldest event, incrementing ev_out on success.
func (q *Queue) Pop() (domain.Event, bool) {
	e, ok := q.r.Pop()
	if ok {
		q.stats.EvOut++
	}
	return e, ok
}
