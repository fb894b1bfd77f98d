package observability

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/latticebyte/bpu/internal/domain"
)

// snapshotEncMode encodes a Snapshot with Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer width, no indefinite-length
// items. Two snapshots with identical field values always produce identical
// bytes, so a downstream collector can dedupe or hash encoded snapshots.
var snapshotEncMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic("observability: cbor encoder initialization failed: " + err.Error())
	}
	snapshotEncMode = mode
}

// EncodeSnapshot renders a Snapshot as a compact, deterministic CBOR map for
// export to an external archiver, independent of the Prometheus
// text-exposition gauges this package also maintains.
func EncodeSnapshot(s domain.Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// DecodeSnapshot is the inverse of EncodeSnapshot, used by tests and by
// offline tooling that replays archived snapshots.
func DecodeSnapshot(data []byte) (domain.Snapshot, error) {
	var s domain.Snapshot
	err := cbor.Unmarshal(data, &s)
	return s, err
}
