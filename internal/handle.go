// Current-task identification: the single mechanism by which the
// task-side API (Yield, Delay, WaitForNotify) discovers which task it is
// running on, without an explicit handle argument or OS thread-local
// storage (see spec.md §4.2 and §9, and SPEC_FULL.md §A).

package tasker_internal

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID parses the numeric id out of the header line of
// runtime.Stack, e.g. "goroutine 37 [running]:". This is the closest
// analogue Go offers to "read the machine stack pointer": an identifier
// for the execution context that is live for the lifetime of the
// goroutine and cannot be spoofed by the calling code.
func currentGoroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// CurrentTask returns the handle of the task executing on the calling
// goroutine, or InvalidHandle if called from the scheduler goroutine or
// any other context.
//
// Per spec.md §4.2 this would be derived purely from the stack pointer.
// The Go port follows design note §9's own suggested cleaner rewrite
// instead: the scheduler records, in runningHandle, the handle it has
// just handed the baton to (set immediately before the resume send,
// cleared immediately after the matching suspend receive — see
// scheduler.go's dispatchOne and startTaskGoroutine). The goroutine-id match below is the
// SP-range-and-marker check demoted to a consistency assertion, exactly
// as the design note proposes.
func (s *Scheduler) CurrentTask() Handle {
	h, _ := s.runningHandle.Load().(Handle)
	if !h.Valid() {
		return InvalidHandle
	}
	if h.t.goroutineID != 0 && h.t.goroutineID != currentGoroutineID() {
		// The scheduler's bookkeeping disagrees with the actual execution
		// context. This should be unreachable given the channel handoff
		// in dispatchOne; treat it as "no current task" rather than trust
		// a possibly-stale handle.
		return InvalidHandle
	}
	return h
}
