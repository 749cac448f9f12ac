// Task-side API: the operations a task's entry function calls on
// itself. Yield, Delay and WaitForNotify are no-ops when called outside
// of any task's goroutine (spec.md §4.3, §7), since CurrentTask returns
// InvalidHandle in that case; Notify does not depend on the caller and
// works from any context.

package tasker_internal

// Yield voluntarily gives up the remainder of this lap's turn. The
// scheduler resumes it unconditionally on the next lap (spec.md §4.5).
func (s *Scheduler) Yield() {
	h := s.CurrentTask()
	if !h.Valid() {
		return
	}
	h.t.yielding = true
	h.t.suspend()
}

// Delay suspends the calling task until at least ms milliseconds have
// elapsed, measured from the scheduler's Clock. A zero ms is
// equivalent to Yield.
func (s *Scheduler) Delay(ms uint32) {
	h := s.CurrentTask()
	if !h.Valid() {
		return
	}
	if ms == 0 {
		s.Yield()
		return
	}
	h.t.delayDeadline = s.clock.NowMs() + ms
	h.t.suspend()
}

// WaitForNotify blocks the calling task until any notification bit is
// set, or until timeoutMs elapses (TimeoutMax waits forever). It
// returns the accumulated bitset and clears it, matching
// xTaskNotifyWait's clear-on-read semantics. If a bit is already
// pending it returns immediately without suspending.
func (s *Scheduler) WaitForNotify(timeoutMs uint32) uint32 {
	h := s.CurrentTask()
	if !h.Valid() {
		return 0
	}
	t := h.t

	if bits := t.events.Swap(0); bits != 0 {
		return bits
	}

	t.pendingEvent = true
	if timeoutMs != 0 && timeoutMs != TimeoutMax {
		t.eventDeadline = s.clock.NowMs() + timeoutMs
	}
	t.suspend()
	t.eventDeadline = TimeoutMax

	return t.events.Swap(0)
}

// Notify ORs bits into target's pending notification set. It is safe
// to call from any task (or from outside any task) targeting any
// handle, including one suspended in WaitForNotify. A stale or
// InvalidHandle target is a no-op, matching spec.md §4.3's tolerance
// for notifying a task that no longer exists.
func (s *Scheduler) Notify(target Handle, bits uint32) {
	if !target.Valid() || bits == 0 {
		return
	}
	target.t.events.Or(bits)
}
