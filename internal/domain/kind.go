// Package domain holds the wire-level types shared by every stage of the
// pipeline: event kind, event/job records, and the stats block.
package domain

// Kind enumerates the four event/job families the core understands. Job
// kinds mirror event kinds 1:1; the same Kind value is carried on both sides
// of the lowering stage.
type Kind uint8

const (
	KindCMD Kind = iota + 1
	KindSensor
	KindHB
	KindTelem
)

func (k Kind) String() string {
	switch k {
	case KindCMD:
		return "CMD"
	case KindSensor:
		return "SENSOR"
	case KindHB:
		return "HB"
	case KindTelem:
		return "TELEM"
	default:
		return "UNKNOWN"
	}
}

// WireType returns the frame header's type byte: CMD=1, SENSOR=2, HB=3,
// TELEM=4.
func (k Kind) WireType() byte {
	return byte(k)
}

// Tag returns the payload tag byte embedded by the lowering stage:
// SENSOR=1, HB=2, TELEM=3, CMD=4 — deliberately a different enumeration
// order than WireType.
func (k Kind) Tag() byte {
	switch k {
	case KindSensor:
		return 0x01
	case KindHB:
		return 0x02
	case KindTelem:
		return 0x03
	case KindCMD:
		return 0x04
	default:
		return 0x00
	}
}

// Coalesces reports whether the event queue merges same-kind arrivals within
// the coalesce window. Only CMD preserves every instance.
func (k Kind) Coalesces() bool {
	return k != KindCMD
}
