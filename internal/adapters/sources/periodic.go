// Package sources implements the pseudo-source scheduler and the external
// MQTT-backed CMD source. The periodic scheduler's fixed-cadence firing
// shape is generalized from a live subscription pattern into three
// independent simulated emitters.
package sources

import (
	"encoding/binary"

	"github.com/latticebyte/bpu/internal/adapters/eventqueue"
	"github.com/latticebyte/bpu/internal/domain"
)

// Periods, in milliseconds.
const (
	SensorPeriodMs = 80
	HBPeriodMs     = 200
	TelemPeriodMs  = 1000
)

// Scheduler holds the per-source next-fire deadlines and fires SENSOR, HB,
// and TELEM pseudo-events on fixed cadences, tolerating drift from a
// delayed tick: catch-up happens at the tick driver, not here.
type Scheduler struct {
	tNextSensor, tNextHB, tNextTelem uint32
	started                          bool

	sensorPeriod, hbPeriod, telemPeriod uint32
}

// NewScheduler returns a Scheduler using the default periods. All three
// sources arm against the first tick's now_ms they observe.
func NewScheduler() *Scheduler {
	return NewSchedulerWithPeriods(SensorPeriodMs, HBPeriodMs, TelemPeriodMs)
}

// NewSchedulerWithPeriods returns a Scheduler using caller-supplied periods,
// letting a Tuning's sensor_ms/hb_ms/telem_ms override the nominal defaults.
// A zero period falls back to the corresponding default rather than firing
// on every tick.
func NewSchedulerWithPeriods(sensorMs, hbMs, telemMs uint32) *Scheduler {
	if sensorMs == 0 {
		sensorMs = SensorPeriodMs
	}
	if hbMs == 0 {
		hbMs = HBPeriodMs
	}
	if telemMs == 0 {
		telemMs = TelemPeriodMs
	}
	return &Scheduler{
		sensorPeriod: sensorMs,
		hbPeriod:     hbMs,
		telemPeriod:  telemMs,
	}
}

// Fire evaluates all three sources against now and coalesces any that fired
// into q, incrementing the corresponding pick_* counter in stats at the
// moment of firing — not at transmission time. It returns which sources
// fired this call.
func (s *Scheduler) Fire(now uint32, q *eventqueue.Queue, stats *domain.Stats) (sensorFired, hbFired, telemFired bool) {
	sensorFired = fires(now, &s.tNextSensor, s.sensorPeriod, s.started)
	hbFired = fires(now, &s.tNextHB, s.hbPeriod, s.started)
	telemFired = fires(now, &s.tNextTelem, s.telemPeriod, s.started)
	s.started = true

	if sensorFired {
		stats.PickSensor++
		q.PushCoalesce(domain.NewEvent(domain.KindSensor, 0, now, sensorPayload(now)))
	}
	if hbFired {
		stats.PickHB++
		q.PushCoalesce(domain.NewEvent(domain.KindHB, 0, now, hbPayload()))
	}
	if telemFired {
		stats.PickTelem++
		q.PushCoalesce(domain.NewEvent(domain.KindTelem, 0, now, telemPayload(now)))
	}
	return sensorFired, hbFired, telemFired
}

// fires reports whether a source's deadline has passed, using signed
// wraparound comparison: a source fires when (int32)(now - tNext) >= 0. On
// fire, tNext is advanced to now+period,
// which can drift relative to an ideal schedule if the tick was delayed —
// drift is tolerated by design.
func fires(now uint32, tNext *uint32, period uint32, started bool) bool {
	if !started {
		*tNext = now
	}
	if domain.SignedDelta(now, *tNext) >= 0 {
		*tNext = now + period
		return true
	}
	return false
}

// sensorPayload returns (now_ms/10) mod 2^16, little-endian.
func sensorPayload(now uint32) []byte {
	v := uint16((now / 10) % 65536)
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// hbPayload returns the single heartbeat byte 0x01.
func hbPayload() []byte {
	return []byte{0x01}
}

// telemPayload returns now_ms as 4 little-endian bytes.
func telemPayload(now uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, now)
	return buf
}
