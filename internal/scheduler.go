// Cooperative, non-preemptive task scheduler: the core of this module.
//
//  Dispatch Architecture
//  ======================
//
// Each task is backed by its own goroutine, parked on an unbuffered
// channel whenever it is not the one running. The scheduler hands the
// baton to exactly one task goroutine at a time by sending on that
// task's toTask channel, then blocks receiving on its toSched channel
// until the task suspends again (by calling Yield, Delay, or
// WaitForNotify). Because both channels are unbuffered, the send/receive
// rendezvous is the Go substitute for the original's setjmp/longjmp
// stack switch: it guarantees exactly one of {scheduler, one task} is
// ever runnable at a time, which is what makes every other piece of
// task-side state safe to touch without its own lock.
//
// The round-robin order is the order tasks were created in (spec.md
// §4.1), walked as a circular singly linked list via tcb.next.

package tasker_internal

import (
	"sync"
	"sync/atomic"

	"github.com/eitanmi/micro-tasker/internal/hal"
)

var schedulerLog = NewCompLogger("scheduler")

// SchedulerState mirrors the lifecycle spec.md §4.4 assigns the
// scheduler: it is built, then started exactly once, and never
// meaningfully "stops" short of process exit (the dispatch loop is
// intentionally infinite, matching vTaskStartScheduler in the original).
type SchedulerState int

const (
	SchedulerCreated SchedulerState = iota
	SchedulerRunning
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerCreated:
		return "CREATED"
	case SchedulerRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// Scheduler owns the task list and drives the round-robin dispatch
// loop. The zero value is not usable; build one with NewScheduler.
type Scheduler struct {
	mu    sync.Mutex
	head  *tcb
	tail  *tcb
	count int
	state SchedulerState

	// runningHandle is the handle of the task currently holding the
	// baton, or the zero Handle while the scheduler itself runs. See
	// handle.go's CurrentTask.
	runningHandle atomic.Value

	clock    hal.Clock
	keyboard hal.Keyboard
	cfg      Config
}

// NewScheduler builds a Scheduler against the given host dependencies.
// A nil clock selects hal.SystemClock; a nil keyboard selects
// hal.NullKeyboard (pass hal.NewKeyboard() for a real console).
func NewScheduler(cfg Config, clock hal.Clock, keyboard hal.Keyboard) *Scheduler {
	if clock == nil {
		clock = hal.NewSystemClock()
	}
	if keyboard == nil {
		keyboard = hal.NullKeyboard{}
	}
	s := &Scheduler{clock: clock, keyboard: keyboard, cfg: cfg}
	s.runningHandle.Store(InvalidHandle)
	return s
}

// CreateTask registers a new task, to be started the next time
// StartScheduler runs. Per spec.md §4.1, tasks can only be created
// before the scheduler starts; once running, CreateTask refuses and
// returns InvalidHandle. name is truncated to maxNameLen, stackSize is
// advisory (it sizes the runtime.Stack() high-water percentage, not an
// actual allocation — see stack.go).
func (s *Scheduler) CreateTask(name string, entry func(arg any), stackSize uint32, arg any) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SchedulerCreated {
		schedulerLog.Warnf("create task %s: scheduler already running", name)
		return InvalidHandle
	}
	if stackSize == 0 {
		stackSize = s.cfg.DefaultStackSize
	}

	t := newTCB(name, entry, stackSize, arg)
	if s.head == nil {
		s.head, s.tail = t, t
		t.next = t
	} else {
		t.next = s.head
		s.tail.next = t
		s.tail = t
	}
	s.count++
	schedulerLog.Infof("create task %s: stack_size=%d", t.name, t.stackSize)
	return Handle{t: t}
}

// StartScheduler transitions from CREATED to RUNNING, starts every
// registered task's goroutine, and enters the round-robin dispatch
// loop. It returns false without doing anything if the scheduler is
// already running or has no tasks, matching xTaskStartScheduler's
// guard in the original. In normal operation the dispatch loop never
// returns; callers that need a bounded run (tests, bootstrap-only
// demos) should call Bootstrap and PassOnce directly instead.
func (s *Scheduler) StartScheduler() bool {
	s.mu.Lock()
	if s.state != SchedulerCreated {
		s.mu.Unlock()
		schedulerLog.Warn("start scheduler: already running")
		return false
	}
	if s.count == 0 {
		s.mu.Unlock()
		schedulerLog.Warn("start scheduler: no tasks registered")
		return false
	}
	s.mu.Unlock()

	schedulerLog.Info("start scheduler")
	if clktck, err := hal.SchedulingClockTicksPerSec(); err == nil {
		schedulerLog.Infof("host SC_CLK_TCK=%d", clktck)
	}
	s.clock.Sleep(s.cfg.SettleDelay)
	s.Bootstrap()

	s.mu.Lock()
	s.state = SchedulerRunning
	s.mu.Unlock()
	schedulerLog.Info("scheduler started")

	for {
		s.PassOnce()
	}
}

// Bootstrap starts one goroutine per registered task and waits for each
// to reach its first suspend point, so that by the time Bootstrap
// returns every task is parked and ready to be dispatched. Exported so
// tests can drive the scheduler deterministically without going
// through the infinite loop in StartScheduler.
func (s *Scheduler) Bootstrap() {
	s.mu.Lock()
	head := s.head
	s.mu.Unlock()
	if head == nil {
		return
	}

	t := head
	for {
		s.startTaskGoroutine(t)
		t = t.next
		if t == head {
			break
		}
	}
}

// startTaskGoroutine launches t's entry function on its own goroutine
// and blocks until it reaches its first suspend point (the first
// Yield/Delay/WaitForNotify call, or return).
func (s *Scheduler) startTaskGoroutine(t *tcb) {
	s.runningHandle.Store(Handle{t: t})
	go func() {
		t.goroutineID = currentGoroutineID()
		t.running = true
		s.sampleStackUsage(t)
		defer func() {
			if r := recover(); r != nil {
				schedulerLog.Errorf("task %s panicked: %v", t.name, r)
			}
			t.toSched <- struct{}{}
		}()
		t.entry(t.arg)
	}()
	<-t.toSched
	s.runningHandle.Store(InvalidHandle)
}

// PassOnce performs exactly one round-robin lap: for each task in
// creation order, check whether it is runnable (spec.md §4.5) and, if
// so, hand it the baton and wait for it to suspend again. One call to
// PassOnce corresponds to one iteration of the original's
// vTaskStartScheduler for(;;) body.
func (s *Scheduler) PassOnce() {
	s.mu.Lock()
	head := s.head
	s.mu.Unlock()
	if head == nil {
		return
	}

	now := s.clock.NowMs()
	t := head
	for {
		if s.runnable(t, now) {
			s.dispatchOne(t, now)
		}
		t = t.next
		if t == head {
			break
		}
	}

	s.pollKeyboard()
}

// runnable implements spec.md §4.5's predicate: a task is eligible to
// run this lap if it is not mid-delay and not blocked waiting on
// events that haven't arrived (or whose deadline hasn't elapsed).
func (s *Scheduler) runnable(t *tcb, now uint32) bool {
	if t.yielding {
		t.yielding = false
		return true
	}
	if t.pendingEvent {
		if t.events.Load() != 0 {
			t.pendingEvent = false
			return true
		}
		if t.eventDeadline != TimeoutMax && elapsed(t.eventDeadline, now) {
			t.pendingEvent = false
			return true
		}
		return false
	}
	if t.delayDeadline != 0 {
		if elapsed(t.delayDeadline, now) {
			t.delayDeadline = 0
			return true
		}
		return false
	}
	return true
}

// elapsed reports whether deadline has passed as of now, tolerating a
// single 32-bit tick-counter wraparound exactly like the C original's
// unsigned-subtraction idiom.
func elapsed(deadline, now uint32) bool {
	return int32(now-deadline) >= 0
}

// dispatchOne hands the baton to t and blocks until it suspends again,
// updating the bookkeeping (running-handle, per-lap tick accounting,
// stack high-water mark) around the handoff. t.running is set once,
// the first time the task is entered (startTaskGoroutine), and never
// cleared: tasks never terminate (spec.md §3), so a task that has run
// at least once stays "running" for the rest of the process's life;
// dispatchOne's own in/out toggling would otherwise make a live task
// indistinguishable from a stopped one at every instant stats can
// actually be sampled from (between dispatches, see pollKeyboard).
func (s *Scheduler) dispatchOne(t *tcb, now uint32) {
	h := Handle{t: t}
	s.runningHandle.Store(h)
	start := s.clock.NowMs()

	t.toTask <- struct{}{}
	<-t.toSched

	s.runningHandle.Store(InvalidHandle)

	if !s.cfg.CollectStats {
		return
	}

	took := s.clock.NowMs() - start
	t.ticksAccum += took
	if took > t.ticksPeak {
		t.ticksPeak = took
	}
	s.sampleStackUsage(t)
	s.checkStackOverflow(t)
}

func (s *Scheduler) pollKeyboard() {
	if s.keyboard.TryReadKey() >= 0 {
		s.DumpStats(schedulerLog.Infof)
		s.keyboard.WaitForKey(hal.SpaceKey)
	}
}

// suspend is the task-side half of the handoff: it signals the
// scheduler that it is parking, then blocks until handed the baton
// again. Every task-side API in api.go bottoms out here.
func (t *tcb) suspend() {
	t.toSched <- struct{}{}
	<-t.toTask
}
