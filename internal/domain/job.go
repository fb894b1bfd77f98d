package domain

// MaxJobPayload is the maximum number of payload bytes a Job carries: a
// 2-byte header (tag, original event length) plus up to 30 bytes of the
// original event payload.
const MaxJobPayload = 32

// MaxJobCopyLen is the largest slice of the originating event's payload a
// job retains after the 2-byte [tag, len] header.
const MaxJobCopyLen = MaxJobPayload - 2

// Job is a lowered, ready-to-transmit work item. Type mirrors the
// originating Event's Kind; the wire type identifier is carried via
// Type.WireType().
type Job struct {
	Type    Kind
	Flags   byte
	Len     byte
	TMs     uint32
	Payload [MaxJobPayload]byte
}

// LowerEvent builds the Job a given Event lowers to at time nowMs: payload
// is [tag, original_event_len, event_payload[:min(len,30)]].
func LowerEvent(e Event, nowMs uint32) Job {
	j := Job{Type: e.Type, Flags: e.Flags, TMs: nowMs}

	copyLen := int(e.Len)
	if copyLen > MaxJobCopyLen {
		copyLen = MaxJobCopyLen
	}

	j.Payload[0] = e.Type.Tag()
	j.Payload[1] = e.Len
	copy(j.Payload[2:2+copyLen], e.Payload[:copyLen])
	j.Len = byte(2 + copyLen)
	return j
}
