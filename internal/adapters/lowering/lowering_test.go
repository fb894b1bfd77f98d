package lowering

import (
	"testing"

	"github.com/latticebyte/bpu/internal/adapters/eventqueue"
	"github.com/latticebyte/bpu/internal/adapters/jobqueue"
	"github.com/latticebyte/bpu/internal/domain"
)

func TestRunLowersAllQueuedEventsAndDrainsQueue(t *testing.T) {
	stats := &domain.Stats{}
	evq := eventqueue.New(8, 20, stats)
	jobq := jobqueue.New(4, stats)

	evq.PushCoalesce(domain.NewEvent(domain.KindSensor, 0, 1000, []byte{0x11}))
	evq.PushCoalesce(domain.NewEvent(domain.KindHB, 0, 1000, []byte{0x01}))

	New(AgedMs).Run(1005, evq, jobq, stats)

	if evq.Len() != 0 {
		t.Fatalf("event queue should be fully drained, depth = %d", evq.Len())
	}
	if jobq.Len() != 2 {
		t.Fatalf("job queue depth = %d, want 2", jobq.Len())
	}
	if stats.EvOut != 2 {
		t.Fatalf("ev_out = %d, want 2", stats.EvOut)
	}
	if stats.JobIn != 2 {
		t.Fatalf("job_in = %d, want 2", stats.JobIn)
	}
}

func TestRunMarksAgedEventsWithoutAlteringRouting(t *testing.T) {
	stats := &domain.Stats{}
	evq := eventqueue.New(8, 20, stats)
	jobq := jobqueue.New(4, stats)

	evq.PushCoalesce(domain.NewEvent(domain.KindSensor, 0, 0, []byte{0x11}))

	New(AgedMs).Run(AgedMs, evq, jobq, stats)

	if stats.PickAged != 1 {
		t.Fatalf("pick_aged = %d, want 1", stats.PickAged)
	}
	if stats.AgedHitSensor != 1 {
		t.Fatalf("aged_hit_sensor = %d, want 1", stats.AgedHitSensor)
	}
	if jobq.Len() != 1 {
		t.Fatalf("aging must not block the job from being queued, depth = %d", jobq.Len())
	}
}

func TestRunDoesNotMarkFreshEventsAged(t *testing.T) {
	stats := &domain.Stats{}
	evq := eventqueue.New(8, 20, stats)
	jobq := jobqueue.New(4, stats)

	evq.PushCoalesce(domain.NewEvent(domain.KindHB, 0, 1000, []byte{0x01}))

	New(AgedMs).Run(1199, evq, jobq, stats) // 199ms old, just under AgedMs

	if stats.PickAged != 0 {
		t.Fatalf("pick_aged = %d, want 0", stats.PickAged)
	}
}

func TestRunStampsJobTimeAsNowNotEventTime(t *testing.T) {
	stats := &domain.Stats{}
	evq := eventqueue.New(8, 20, stats)
	jobq := jobqueue.New(4, stats)

	evq.PushCoalesce(domain.NewEvent(domain.KindTelem, 0, 500, []byte{0xAA}))
	New(AgedMs).Run(900, evq, jobq, stats)

	j, ok := jobq.Pop()
	if !ok {
		t.Fatalf("expected a job to be queued")
	}
	if j.TMs != 900 {
		t.Fatalf("job TMs = %d, want 900 (stamped at lowering time, not event time)", j.TMs)
	}
}

func TestRunRecordsJobDropWhenJobQueueFull(t *testing.T) {
	stats := &domain.Stats{}
	evq := eventqueue.New(8, 20, stats)
	jobq := jobqueue.New(1, stats)

	evq.PushCoalesce(domain.NewEvent(domain.KindSensor, 0, 1000, []byte{0x01}))
	evq.PushCoalesce(domain.NewEvent(domain.KindCMD, 0, 1001, []byte{0x02}))
	evq.PushCoalesce(domain.NewEvent(domain.KindHB, 0, 1002, []byte{0x03}))

	New(AgedMs).Run(1010, evq, jobq, stats)

	if stats.JobDrop == 0 {
		t.Fatalf("expected at least one job_drop with a capacity-1 job queue and 3 distinct kinds")
	}
}
