// Package ticker implements the catch-up fixed-step tick driver and the
// real monotonic clock it drives against.
package ticker

import (
	"time"

	"github.com/latticebyte/bpu/internal/ports"
)

// SystemClock implements ports.Clock against the process's monotonic clock
// reading, anchored at construction time so the returned values fit in
// uint32 and wrap the same way an embedded system's free-running counter
// would.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock anchored to the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// NowMS returns milliseconds elapsed since the clock was constructed,
// truncated to 32 bits.
func (c *SystemClock) NowMS() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// NowUS returns microseconds elapsed since the clock was constructed,
// truncated to 32 bits.
func (c *SystemClock) NowUS() uint32 {
	return uint32(time.Since(c.start).Microseconds())
}

var _ ports.Clock = (*SystemClock)(nil)
