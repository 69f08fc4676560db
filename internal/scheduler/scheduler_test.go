// internal/scheduler/scheduler_test.go
package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerFiresJob(t *testing.T) {
	var fires atomic.Int32
	sched := New([]Job{
		{Name: "every-second", Schedule: "* * * * * *", Run: func() { fires.Add(1) }},
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	// Wait up to 2.5 seconds for at least one fire
	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("job did not fire within 2.5s, fires=%d", fires.Load())
		case <-ticker.C:
			if fires.Load() > 0 {
				return
			}
		}
	}
}

func TestSchedulerSkipsEmptySchedule(t *testing.T) {
	var fires atomic.Int32
	sched := New([]Job{
		{Name: "disabled", Schedule: "", Run: func() { fires.Add(1) }},
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	time.Sleep(1200 * time.Millisecond)
	if fires.Load() != 0 {
		t.Errorf("disabled job fired %d times", fires.Load())
	}
}

func TestSchedulerBadSchedule(t *testing.T) {
	sched := New([]Job{
		{Name: "broken", Schedule: "not a cron expr", Run: func() {}},
	})
	// A bad schedule is skipped with a log line, not a startup failure.
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	sched.Stop()
}
