// Tests for scheduler.go, api.go and stack.go.

package tasker_internal

import (
	"testing"
	"time"

	"github.com/eitanmi/micro-tasker/internal/hal"
)

func testScheduler(t *testing.T) (*Scheduler, *hal.FakeClock) {
	clock := hal.NewFakeClock()
	cfg := DefaultConfig()
	cfg.SettleDelay = 0
	return NewScheduler(*cfg, clock, hal.NullKeyboard{}), clock
}

// TestYieldRoundRobin verifies that three Yield-only tasks each get
// exactly one turn per PassOnce lap, in creation order.
func TestYieldRoundRobin(t *testing.T) {
	s, _ := testScheduler(t)

	var order []string
	mk := func(name string) func(any) {
		return func(any) {
			for {
				order = append(order, name)
				s.Yield()
			}
		}
	}
	s.CreateTask("A", mk("A"), 0, nil)
	s.CreateTask("B", mk("B"), 0, nil)
	s.CreateTask("C", mk("C"), 0, nil)

	s.Bootstrap()
	order = nil // discard the bootstrap pass's first-run entries

	for i := 0; i < 3; i++ {
		s.PassOnce()
	}

	want := []string{"A", "B", "C", "A", "B", "C", "A", "B", "C"}
	if len(order) != len(want) {
		t.Fatalf("order length: want %d, got %d (%v)", len(want), len(order), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d]: want %s, got %s (%v)", i, want[i], order[i], order)
		}
	}
}

// TestDelay verifies a delayed task is skipped until its deadline
// elapses on the fake clock.
func TestDelay(t *testing.T) {
	s, clock := testScheduler(t)

	ran := 0
	s.CreateTask("sleeper", func(any) {
		for {
			ran++
			s.Delay(100)
		}
	}, 0, nil)

	s.Bootstrap()
	ran = 0

	s.PassOnce() // not due yet
	if ran != 0 {
		t.Fatalf("ran: want 0, got %d", ran)
	}

	clock.Advance(100 * time.Millisecond)
	s.PassOnce()
	if ran != 1 {
		t.Fatalf("ran: want 1, got %d", ran)
	}
}

// TestNotifyWaitsUntilSignalled verifies a task blocked in
// WaitForNotify only resumes once Notify sets a bit, and that it
// observes the bits it was sent.
func TestNotifyWaitsUntilSignalled(t *testing.T) {
	s, _ := testScheduler(t)

	var got uint32
	waiter := s.CreateTask("waiter", func(any) {
		for {
			got = s.WaitForNotify(TimeoutMax)
		}
	}, 0, nil)

	runs := 0
	s.CreateTask("notifier", func(any) {
		for {
			runs++
			if runs == 2 {
				s.Notify(waiter, 0x1)
			}
			s.Yield()
		}
	}, 0, nil)

	s.Bootstrap()
	got = 0

	s.PassOnce() // this lap: notifier sends, waiter already passed over
	if got != 0 {
		t.Fatalf("got: want 0, got %#x", got)
	}

	s.PassOnce() // this lap: waiter is dispatched and observes the bit
	if got != 0x1 {
		t.Fatalf("got: want 0x1, got %#x", got)
	}
}

// TestNotifyWaitTimeout verifies WaitForNotify returns 0 once its
// deadline elapses with no notification received.
func TestNotifyWaitTimeout(t *testing.T) {
	s, clock := testScheduler(t)

	var got uint32
	gotCount := 0
	s.CreateTask("waiter", func(any) {
		for {
			got = s.WaitForNotify(50)
			gotCount++
		}
	}, 0, nil)

	s.Bootstrap()
	gotCount = 0

	s.PassOnce()
	if gotCount != 0 {
		t.Fatalf("gotCount: want 0, got %d", gotCount)
	}

	clock.Advance(50 * time.Millisecond)
	s.PassOnce()
	if gotCount != 1 || got != 0 {
		t.Fatalf("gotCount=%d got=%#x: want 1, 0x0", gotCount, got)
	}
}

// TestCreateTaskAfterStartRefused checks spec.md §4.1's rule that no
// new tasks may be registered once the scheduler is running.
func TestCreateTaskAfterStartRefused(t *testing.T) {
	s, _ := testScheduler(t)
	s.CreateTask("only", func(any) {
		for {
			s.Yield()
		}
	}, 0, nil)
	s.Bootstrap()
	s.state = SchedulerRunning

	h := s.CreateTask("late", func(any) {}, 0, nil)
	if h.Valid() {
		t.Fatal("expected InvalidHandle for a task created after start")
	}
}

// TestCurrentTaskOutsideTask checks that CurrentTask is InvalidHandle
// when called from the scheduler's own goroutine.
func TestCurrentTaskOutsideTask(t *testing.T) {
	s, _ := testScheduler(t)
	if h := s.CurrentTask(); h.Valid() {
		t.Fatal("expected InvalidHandle outside of any task")
	}
}

// TestDispatchStatsUseClock verifies ticksAccum/ticksPeak are derived
// from the scheduler's injected clock, not wall-clock time, by having
// the task itself advance the fake clock before suspending.
func TestDispatchStatsUseClock(t *testing.T) {
	s, clock := testScheduler(t)
	h := s.CreateTask("worker", func(any) {
		for {
			clock.Advance(30 * time.Millisecond)
			s.Yield()
		}
	}, 0, nil)

	s.Bootstrap()
	s.PassOnce()

	stats := s.SnapStats()
	var got *TaskStats
	for i := range stats {
		if stats[i].Name == "worker" {
			got = &stats[i]
		}
	}
	if got == nil {
		t.Fatal("worker stats not found")
	}
	if got.TotalRuntime != 30*time.Millisecond {
		t.Fatalf("TotalRuntime: want 30ms, got %v", got.TotalRuntime)
	}
	if got.PeakDispatchMs != 30 {
		t.Fatalf("PeakDispatchMs: want 30, got %d", got.PeakDispatchMs)
	}
	if h.t.running != true {
		t.Fatal("expected task to remain marked running")
	}
}

// TestStackUsagePercent checks the usage percentage stays within
// [0, 100] after bootstrap, and is -1 for InvalidHandle.
func TestStackUsagePercent(t *testing.T) {
	s, _ := testScheduler(t)
	h := s.CreateTask("task", func(any) {
		for {
			s.Yield()
		}
	}, 65536, nil)

	s.Bootstrap()

	pct := s.StackUsagePercent(h)
	if pct < 0 || pct > 100 {
		t.Fatalf("StackUsagePercent: want [0,100], got %d", pct)
	}
	if got := s.StackUsagePercent(InvalidHandle); got != -1 {
		t.Fatalf("StackUsagePercent(InvalidHandle): want -1, got %d", got)
	}
}
