// Stats reporting. spec.md §4.8 calls for a human-readable table of
// every task's name, run state, stack budget and usage, cumulative
// runtime, and peak single-dispatch latency — the Go analogue of the
// original's xTaskDumpStats. The dispatch loop prints it whenever a key
// is pressed, then waits for space before resuming (see
// hal.Keyboard/SpaceKey in scheduler.go's pollKeyboard).

package tasker_internal

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/huandu/go-clone"
)

// TaskStats is a point-in-time, race-free snapshot of one task's
// scheduling statistics. It is returned by value and deep-cloned off
// the live tcb so callers can hold onto it (print it, diff it, log it)
// without any risk of observing a partially updated record from a
// concurrent dispatch.
type TaskStats struct {
	Name           string
	State          string
	StackSize      uint32
	StackUsagePct  int
	TotalRuntime   time.Duration
	PeakDispatchMs uint32
}

// SnapStats returns a stable snapshot of every registered task's
// stats, in creation order.
func (s *Scheduler) SnapStats() []TaskStats {
	s.mu.Lock()
	head := s.head
	s.mu.Unlock()
	if head == nil {
		return nil
	}

	var out []TaskStats
	t := head
	for {
		out = append(out, clone.Clone(s.snapOne(t)).(TaskStats))
		t = t.next
		if t == head {
			break
		}
	}
	return out
}

func (s *Scheduler) snapOne(t *tcb) TaskStats {
	h := Handle{t: t}
	return TaskStats{
		Name:           t.name,
		State:          s.taskState(t),
		StackSize:      t.stackSize,
		StackUsagePct:  s.StackUsagePercent(h),
		TotalRuntime:   time.Duration(t.ticksAccum) * time.Millisecond,
		PeakDispatchMs: t.ticksPeak,
	}
}

// taskState reports one of the four states xTaskDumpStats names:
// Stopped (never entered), Pending (blocked in WaitForNotify), Delaying
// (blocked in Delay), or Executing (runnable, just not this instant).
func (s *Scheduler) taskState(t *tcb) string {
	switch {
	case !t.running:
		return "Stopped"
	case t.pendingEvent:
		return "Pending"
	case t.delayDeadline != 0:
		return "Delaying"
	default:
		return "Executing"
	}
}

// DumpStats renders the current snapshot as a fixed-width table via
// printf, one line per task plus a header, and writes each line through
// printf (the scheduler's own logger's Infof when triggered from the
// dispatch loop's key poll).
func (s *Scheduler) DumpStats(printf func(format string, args ...any)) {
	stats := s.SnapStats()
	printf("%-20s %-10s %-10s %-8s %-10s %s", "TASK", "STATE", "STACK", "USAGE%", "RUNTIME", "PEAK_MS")
	for _, st := range stats {
		printf("%-20s %-10s %-10s %-8d %-10s %d",
			st.Name,
			st.State,
			units.HumanSize(float64(st.StackSize)),
			st.StackUsagePct,
			fmtHMS(st.TotalRuntime),
			st.PeakDispatchMs,
		)
	}
}

func fmtHMS(d time.Duration) string {
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
