// Package jobqueue implements the lowered-work-item queue: a bounded FIFO
// that always keeps only the latest job per kind, with no time window —
// unlike the event queue, this applies to every kind including CMD.
package jobqueue

import (
	"github.com/latticebyte/bpu/internal/adapters/ring"
	"github.com/latticebyte/bpu/internal/domain"
)

// Outcome mirrors eventqueue.Outcome for the job side.
type Outcome int

const (
	Pushed Outcome = iota
	Merged
	Dropped
)

// Queue is the bounded job FIFO with unconditional keep-last-by-kind
// coalescing. It owns the job_{in,out,merge,drop} counters directly,
// mirroring eventqueue.Queue's ownership of its own counters so
// job_in = job_out + job_merge + job_drop + jobQ_current holds by
// construction.
type Queue struct {
	r     *ring.Ring[domain.Job]
	stats *domain.Stats
}

// New builds a Queue with the given capacity, recording its counters into
// stats.
func New(capacity int, stats *domain.Stats) *Queue {
	return &Queue{r: ring.New[domain.Job](capacity), stats: stats}
}

// Len returns the current depth.
func (q *Queue) Len() int { return q.r.Count() }

// PushCoalesce admits j. If a job of the same kind is already queued it is
// overwritten in place (Merged) — including a job that was just popped for
// transmission and is being requeued by the flush loop; a fresher sibling
// is always allowed to obliterate it, favoring freshness over completeness.
// Otherwise pushes (Pushed) or reports Dropped if full.
func (q *Queue) PushCoalesce(j domain.Job) Outcome {
	q.stats.JobIn++

	merged := false
	q.r.Each(func(i int, existing domain.Job) bool {
		if existing.Type != j.Type {
			return true
		}
		q.r.Update(i, j)
		merged = true
		return false
	})
	if merged {
		q.stats.JobMerge++
		return Merged
	}

	if q.r.Push(j) {
		return Pushed
	}
	q.stats.JobDrop++
	return Dropped
}

// Pop removes and returns the oldest job, incrementing job_out on success.
func (q *Queue) Pop() (domain.Job, bool) {
	j, ok := q.r.Pop()
	if ok {
		q.stats.JobOut++
	}
	return j, ok
}

// DirtyMask returns a 64-bit bitmap where bit k is set iff a job whose wire
// type equals k is currently queued.
func (q *Queue) DirtyMask() uint64 {
	var mask uint64
	q.r.Each(func(_ int, j domain.Job) bool {
		mask |= 1 << uint(j.Type.WireType())
		return true
	})
	return mask
}
