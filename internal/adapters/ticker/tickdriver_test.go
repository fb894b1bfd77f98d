package ticker

import "testing"

type fakeClock struct {
	ms uint32
}

func (c *fakeClock) NowMS() uint32 { return c.ms }
func (c *fakeClock) NowUS() uint32 { return c.ms * 1000 }

func TestRunTicksFiresNothingBeforeFirstPeriod(t *testing.T) {
	clock := &fakeClock{ms: 1000}
	var fired []uint32
	d := NewDriver(clock, TickMs, func(now uint32) { fired = append(fired, now) })

	d.RunTicks() // first call only arms the deadline; unlike the source scheduler, arming does not fire
	if len(fired) != 0 {
		t.Fatalf("expected no tick on the arming call, got %v", fired)
	}
}

func TestRunTicksFiresOnceAfterOnePeriod(t *testing.T) {
	clock := &fakeClock{ms: 1000}
	var fired []uint32
	d := NewDriver(clock, TickMs, func(now uint32) { fired = append(fired, now) })

	d.RunTicks()
	clock.ms += TickMs
	d.RunTicks()

	if len(fired) != 1 || fired[0] != 1020 {
		t.Fatalf("fired = %v, want [1020]", fired)
	}
}

func TestRunTicksCatchesUpMissedTicksIndividually(t *testing.T) {
	clock := &fakeClock{ms: 1000}
	var fired []uint32
	d := NewDriver(clock, TickMs, func(now uint32) { fired = append(fired, now) })

	d.RunTicks()
	clock.ms += TickMs * 5 // a stall: 5 ticks' worth of time passed at once
	d.RunTicks()

	if len(fired) != 5 {
		t.Fatalf("expected 5 individual catch-up ticks, got %d: %v", len(fired), fired)
	}
	for i, got := range fired {
		if got != clock.ms {
			t.Fatalf("fired[%d] = %d, want %d (the sampled now, not an advancing deadline)", i, got, clock.ms)
		}
	}
}

func TestRunTicksSurvivesSignedWraparound(t *testing.T) {
	clock := &fakeClock{ms: 0xFFFFFFF0}
	var fired []uint32
	d := NewDriver(clock, TickMs, func(now uint32) { fired = append(fired, now) })

	d.RunTicks()
	var base int64 = 0xFFFFFFF0
	clock.ms = uint32(base + TickMs) // wraps past zero
	d.RunTicks()

	if len(fired) != 1 {
		t.Fatalf("expected exactly 1 tick across the wraparound, got %d: %v", len(fired), fired)
	}
}
