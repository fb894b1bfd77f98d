package ports

import "github.com/latticebyte/bpu/internal/domain"

// EventSource is an external, thread-safe producer of events (e.g. an MQTT
// subscriber). It deposits events into a channel of its own choosing; the
// core drains that channel once per tick from the single owning goroutine,
// so EventSource implementations must never touch core state directly.
type EventSource interface {
	Start(out chan<- domain.Event) error
	Stop() error
}
