// Package flush implements the budget/shaping loop: once per tick, drains
// the job queue against a fixed byte budget and the sink's available write
// space, discarding or requeueing jobs that can't make it out this tick.
package flush

import (
	"github.com/latticebyte/bpu/internal/adapters/framer"
	"github.com/latticebyte/bpu/internal/adapters/jobqueue"
	"github.com/latticebyte/bpu/internal/domain"
	"github.com/latticebyte/bpu/internal/ports"
)

// Default tuning values.
const (
	TxBudgetBytes  = 200
	OutMinFreeBytes = 96
)

// Loop owns the framer and the tuning knobs governing how aggressively the
// job queue is drained each tick.
type Loop struct {
	framer          *framer.Framer
	txBudgetBytes   int
	outMinFreeBytes int
	enableDegrade   bool
}

// New returns a Loop using f to frame outgoing jobs.
func New(f *framer.Framer, txBudgetBytes, outMinFreeBytes int, enableDegrade bool) *Loop {
	return &Loop{
		framer:          f,
		txBudgetBytes:   txBudgetBytes,
		outMinFreeBytes: outMinFreeBytes,
		enableDegrade:   enableDegrade,
	}
}

// Run executes one tick's worth of flushing against jobq and sink,
// recording every flush/uart/degrade counter into stats.
func (l *Loop) Run(jobq *jobqueue.Queue, sink ports.ByteSink, stats *domain.Stats) {
	budgetLeft := l.txBudgetBytes
	sentAny := false

	for budgetLeft > 0 && jobq.Len() > 0 {
		ok, consumedBudget := l.flushOne(jobq, sink, stats, &budgetLeft)
		if ok {
			sentAny = true
		}
		if !ok && !consumedBudget {
			break // anti-spin guard: no progress possible this tick
		}
	}

	if sentAny {
		if jobq.Len() == 0 {
			stats.FlushFull++
		} else {
			stats.FlushPartial++
		}
	}
}

// flushOne pops and attempts to transmit a single job. It returns whether
// the job was sent, and whether budgetLeft was reduced (used by Run's
// anti-spin guard — a requeue/drop that didn't touch the budget means no
// further progress is possible this tick).
func (l *Loop) flushOne(jobq *jobqueue.Queue, sink ports.ByteSink, stats *domain.Stats, budgetLeft *int) (sent bool, consumedBudget bool) {
	stats.FlushTry++

	j, ok := jobq.Pop()
	if !ok {
		return false, false
	}

	decodedLen := 4 + int(j.Len) + 2
	overhead := decodedLen/254 + 2
	worst := decodedLen + overhead + 1

	if worst > *budgetLeft {
		stats.UartSkipBudget++
		if l.enableDegrade && j.Type == domain.KindTelem {
			stats.DegradeDrop++
			return false, false
		}
		jobq.PushCoalesce(j)
		stats.DegradeRequeue++
		return false, false
	}

	if sink.AvailableForWrite() < l.outMinFreeBytes {
		stats.UartSkipTxbuf++
		jobq.PushCoalesce(j)
		stats.DegradeRequeue++
		return false, false
	}

	wireLen := int(j.Len)
	if wireLen > 255 {
		wireLen = 255
	}

	written, okSend := l.framer.SendFrame(sink, j.Type, j.Payload[:wireLen])
	if !okSend {
		jobq.PushCoalesce(j)
		stats.DegradeRequeue++
		return false, false
	}

	*budgetLeft -= written
	stats.UartSent++
	stats.UartBytes += uint64(written)
	stats.OutBytesTotal += uint64(written)
	stats.FlushOk++
	return true, true
}
