package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/latticebyte/bpu/internal/domain"
)

type recordingLog struct {
	lines [][]byte
}

func (r *recordingLog) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	r.lines = append(r.lines, cp)
	return len(p), nil
}

func TestEmitWritesFirstLineImmediately(t *testing.T) {
	obs := newTestPromObs(t)
	log := &recordingLog{}
	e := NewSnapshotEmitter(obs, log, 200)

	n := e.Emit(1000, domain.Snapshot{})
	if n == 0 {
		t.Fatalf("expected the first Emit to write a log line")
	}
	if len(log.lines) != 1 {
		t.Fatalf("expected exactly 1 log line, got %d", len(log.lines))
	}
}

func TestEmitThrottlesWithinInterval(t *testing.T) {
	obs := newTestPromObs(t)
	log := &recordingLog{}
	e := NewSnapshotEmitter(obs, log, 200)

	e.Emit(1000, domain.Snapshot{})
	n := e.Emit(1100, domain.Snapshot{}) // 100ms later, inside the 200ms window
	if n != 0 {
		t.Fatalf("expected the throttled Emit to write 0 bytes, wrote %d", n)
	}
	if len(log.lines) != 1 {
		t.Fatalf("expected no additional log line while throttled, got %d total", len(log.lines))
	}
}

func TestEmitWritesAgainAfterInterval(t *testing.T) {
	obs := newTestPromObs(t)
	log := &recordingLog{}
	e := NewSnapshotEmitter(obs, log, 200)

	e.Emit(1000, domain.Snapshot{})
	n := e.Emit(1200, domain.Snapshot{}) // exactly 200ms later
	if n == 0 {
		t.Fatalf("expected a new log line once the interval has elapsed")
	}
	if len(log.lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(log.lines))
	}
}

func TestEmitAlwaysPushesMetricsEvenWhenThrottled(t *testing.T) {
	obs := newTestPromObs(t)
	log := &recordingLog{}
	e := NewSnapshotEmitter(obs, log, 200)

	e.Emit(1000, domain.Snapshot{EvQDepth: 1})
	e.Emit(1050, domain.Snapshot{EvQDepth: 7}) // throttled for logging, not for metrics

	got := obs.gauges["bpu_evq_depth"]
	if got == nil {
		t.Fatalf("expected bpu_evq_depth gauge to be registered")
	}
	if v := testutil.ToFloat64(got); v != 7 {
		t.Fatalf("bpu_evq_depth = %f, want 7 (pushed by the throttled Emit)", v)
	}
}
