package ticker

import (
	"time"

	"github.com/latticebyte/bpu/internal/domain"
	"github.com/latticebyte/bpu/internal/ports"
)

// TickMs is the target tick period.
const TickMs = 20

// TickFunc is invoked once per logical tick with the tick's now_ms.
type TickFunc func(now uint32)

// Driver wakes periodically and runs a catch-up loop: every missed tick
// executes its own full pass rather than being collapsed into one, so
// source cadence is preserved even after a scheduling stall.
type Driver struct {
	clock    ports.Clock
	periodMs uint32
	fn       TickFunc

	lastTickMs uint32
	started    bool
}

// NewDriver returns a Driver invoking fn at periodMs cadence, reading time
// from clock.
func NewDriver(clock ports.Clock, periodMs uint32, fn TickFunc) *Driver {
	return &Driver{clock: clock, periodMs: periodMs, fn: fn}
}

// RunTicks executes the catch-up loop once against the clock's current
// reading, invoking fn for every tick period that has elapsed since the
// last call. It is exported separately from Run so callers that already
// own a select loop (e.g. alongside an EventSource channel) can drive ticks
// without an extra goroutine.
func (d *Driver) RunTicks() {
	now := d.clock.NowMS()
	if !d.started {
		d.lastTickMs = now
		d.started = true
	}
	for domain.SignedDelta(now, d.lastTickMs) >= int32(d.periodMs) {
		d.lastTickMs += d.periodMs
		d.fn(now)
	}
}

// Run blocks, waking at a short fixed interval and running the catch-up
// loop, until stop is closed. The wake interval is shorter than periodMs so
// that RunTicks observes the deadline promptly without busy-looping.
func (d *Driver) Run(stop <-chan struct{}) {
	wake := d.periodMs / 4
	if wake == 0 {
		wake = 1
	}
	t := time.NewTicker(time.Duration(wake) * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			d.RunTicks()
		}
	}
}
