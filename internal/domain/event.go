package domain

// MaxEventPayload is the maximum number of payload bytes an Event carries.
const MaxEventPayload = 16

// Event is a producer-originated record entering the event queue. TMs is the
// producer's timestamp in milliseconds (wraps at 2^32); it drives both
// coalescing and aging.
type Event struct {
	Type    Kind
	Flags   byte
	Len     byte
	TMs     uint32
	Payload [MaxEventPayload]byte
}

// NewEvent builds an Event from a byte slice, truncating to MaxEventPayload.
func NewEvent(kind Kind, flags byte, tMs uint32, payload []byte) Event {
	e := Event{Type: kind, Flags: flags, TMs: tMs}
	n := len(payload)
	if n > MaxEventPayload {
		n = MaxEventPayload
	}
	e.Len = byte(n)
	copy(e.Payload[:], payload[:n])
	return e
}
