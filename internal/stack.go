// Stack usage introspection. spec.md §4.6 computes usage by scanning a
// task's statically allocated stack buffer for the first byte that no
// longer matches its assigned fill color — a high-water mark derived
// from bytes the task has touched. Go goroutines don't expose (or own,
// in the C sense) their stack memory, so this port samples
// runtime.Stack's reported frame size instead and tracks its own
// high-water mark across every dispatch. It is a faithful-intent
// substitute: same observable (a monotonically non-decreasing
// percentage of a declared budget), different mechanism.

package tasker_internal

import "runtime"

// stackSampleBuf is reused across samples; stack frames this module's
// tasks run are expected to stay well under its size, so growth beyond
// it (which would truncate the sample) is itself a signal logged by
// sampleStackUsage.
var stackSampleBufSize = 8192

// sampleStackUsage records, for t, the byte length of the calling
// goroutine's runtime.Stack trace if it is at least the previously
// recorded high-water mark. Called right after a
// task starts and right after every dispatch, i.e. always from the
// task's own goroutine.
func (s *Scheduler) sampleStackUsage(t *tcb) {
	buf := make([]byte, stackSampleBufSize)
	n := runtime.Stack(buf, false)
	if uint32(n) >= t.highWater.Load() {
		t.highWater.Store(uint32(n))
	}
	if uint32(n) >= uint32(stackSampleBufSize) {
		schedulerLog.Warnf("task %s: stack sample truncated at %d bytes", t.name, stackSampleBufSize)
	}
}

// StackUsagePercent returns h's high-water stack usage as a percentage
// of its declared stack size, clamped to [0, 100]. It returns -1 for an
// invalid handle, matching the sentinel spec.md §4.6 specifies for
// "no such task".
func (s *Scheduler) StackUsagePercent(h Handle) int {
	if !h.Valid() {
		return -1
	}
	t := h.t
	if t.stackSize == 0 {
		return -1
	}
	pct := int(uint64(t.highWater.Load()) * 100 / uint64(t.stackSize))
	if pct > 100 {
		pct = 100
	}
	return pct
}

// checkStackOverflow is the Go stand-in for xTaskValidate's fill-byte
// scan: when enabled, it logs an error once a task's high-water usage
// crosses the configured threshold. Unlike the C original it never
// aborts the process — a task genuinely using more of its budget isn't
// memory corruption here, just a sizing signal.
func (s *Scheduler) checkStackOverflow(t *tcb) {
	if !s.cfg.StackCheckEnabled {
		return
	}
	if pct := s.StackUsagePercent(Handle{t: t}); pct >= s.cfg.StackOverflowThresholdPct {
		schedulerLog.Errorf("task %s: stack usage %d%% >= threshold %d%%", t.name, pct, s.cfg.StackOverflowThresholdPct)
	}
}
