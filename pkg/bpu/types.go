// Package bpu is the public, embeddable API for the batch-processing and
// egress-shaping core: load a Config, build a Runtime against a ByteSink
// (and optionally external EventSources like MQTT), and call Run.
package bpu

import (
	"github.com/latticebyte/bpu/internal/domain"
	"github.com/latticebyte/bpu/internal/ports"
)

// ByteSink is the downstream transport the core transmits framed jobs to
// (a real serial link, or one of this package's in-memory test doubles).
type ByteSink = ports.ByteSink

// LogSink is the diagnostic channel the throttled snapshot line is written
// to.
type LogSink = ports.LogSink

// EventSource is an external, asynchronous producer of events (e.g. an
// MQTT command subscriber) feeding the core's single tick goroutine
// through a channel boundary.
type EventSource = ports.EventSource

// Clock is the monotonic time source driving the tick loop.
type Clock = ports.Clock

// Tuning holds every numeric/behavioral knob the core reads every tick.
type Tuning = ports.Tuning

// Stats is a snapshot of the core's monotonic counters.
type Stats = domain.Stats

// Snapshot adds queue depths and the dirty mask to a Stats snapshot.
type Snapshot = domain.Snapshot

// DefaultTuning returns the nominal tuning values.
func DefaultTuning() Tuning {
	return ports.DefaultTuning()
}
