// Package tasker is the public face of the cooperative task scheduler
// for users of this module. It re-exports the handful of types and
// functions a task author actually needs, keeping the scheduling
// machinery itself (the tcb, the dispatch loop, the HAL) internal.
package tasker

import (
	"github.com/sirupsen/logrus"

	tasker_internal "github.com/eitanmi/micro-tasker/internal"
	"github.com/eitanmi/micro-tasker/internal/hal"
)

// Handle identifies a task for its lifetime. The zero value is
// InvalidHandle.
type Handle = tasker_internal.Handle

// InvalidHandle is returned by CreateTask on failure and by
// CurrentTask when called outside of any task.
var InvalidHandle = tasker_internal.InvalidHandle

// TimeoutMax, passed to WaitForNotify, means "wait indefinitely".
const TimeoutMax = tasker_internal.TimeoutMax

// Config holds every scheduler/host tunable; see DefaultConfig and
// LoadConfig.
type Config = tasker_internal.Config

// TaskStats is a point-in-time snapshot of one task's scheduling
// statistics, as returned by SnapStats.
type TaskStats = tasker_internal.TaskStats

// TaskSpec is what a task builder contributes to Run.
type TaskSpec = tasker_internal.TaskSpec

// DefaultConfig returns a Config primed with this module's defaults.
func DefaultConfig() *Config { return tasker_internal.DefaultConfig() }

// LoadConfig loads a Config from a YAML file (or buf, for tests).
func LoadConfig(cfgFile string, buf []byte) (*Config, error) {
	return tasker_internal.LoadConfig(cfgFile, buf)
}

// Scheduler owns the task list and the round-robin dispatch loop. Build
// one with NewScheduler, register tasks with CreateTask, then call
// StartScheduler once every task is registered.
type Scheduler struct {
	s *tasker_internal.Scheduler
}

// NewScheduler builds a Scheduler. A nil clock selects the system
// clock; a nil keyboard selects a no-op stub that never reports a key
// (pass hal.NewKeyboard() for the raw-terminal reader on unix).
func NewScheduler(cfg Config, clock hal.Clock, keyboard hal.Keyboard) *Scheduler {
	return &Scheduler{s: tasker_internal.NewScheduler(cfg, clock, keyboard)}
}

// CreateTask registers a new task. It must be called before
// StartScheduler; a stackSize of 0 uses cfg.DefaultStackSize.
// Returns InvalidHandle if the scheduler is already running.
func (s *Scheduler) CreateTask(name string, entry func(arg any), stackSize uint32, arg any) Handle {
	return s.s.CreateTask(name, entry, stackSize, arg)
}

// StartScheduler runs every registered task's bootstrap pass and then
// enters the round-robin dispatch loop. It does not return in normal
// operation. It returns false immediately if already running or if no
// tasks were registered.
func (s *Scheduler) StartScheduler() bool { return s.s.StartScheduler() }

// CurrentTask returns the handle of the task executing on the calling
// goroutine, or InvalidHandle outside of any task.
func (s *Scheduler) CurrentTask() Handle { return s.s.CurrentTask() }

// Yield gives up the remainder of the current task's turn; the
// scheduler resumes it unconditionally on the next lap.
func (s *Scheduler) Yield() { s.s.Yield() }

// Delay suspends the current task for at least ms milliseconds.
func (s *Scheduler) Delay(ms uint32) { s.s.Delay(ms) }

// WaitForNotify blocks the current task until a notification bit
// arrives or timeoutMs elapses, returning (and clearing) the
// accumulated bitset.
func (s *Scheduler) WaitForNotify(timeoutMs uint32) uint32 { return s.s.WaitForNotify(timeoutMs) }

// Notify ORs bits into target's pending notification set.
func (s *Scheduler) Notify(target Handle, bits uint32) { s.s.Notify(target, bits) }

// StackUsagePercent returns h's high-water stack usage as a percentage
// of its declared stack size, or -1 for an invalid handle.
func (s *Scheduler) StackUsagePercent(h Handle) int { return s.s.StackUsagePercent(h) }

// SnapStats returns a stable snapshot of every registered task's
// stats, in creation order.
func (s *Scheduler) SnapStats() []TaskStats { return s.s.SnapStats() }

// DumpStats renders the current stats snapshot as a table via printf.
func (s *Scheduler) DumpStats(printf func(format string, args ...any)) { s.s.DumpStats(printf) }

// NewCompLogger returns a component sub-logger with comp=name field,
// for task authors who want their task's log lines tagged like the
// scheduler's own.
func NewCompLogger(name string) *logrus.Entry { return tasker_internal.NewCompLogger(name) }

// GetRootLogger exposes the root logger for tests that need to
// capture it (see testutils.NewTestLogCollect).
func GetRootLogger() *tasker_internal.CollectableLogger { return tasker_internal.GetRootLogger() }

// RegisterTaskBuilder registers a function that Run calls once, at
// startup, to produce the tasks to schedule. Call it from an init() in
// the package that defines the tasks, the way a metrics generator
// registers with the teacher's framework.
func RegisterTaskBuilder(tb func(cfg *Config) ([]TaskSpec, error)) {
	tasker_internal.RegisterTaskBuilder(tb)
}

// GetScheduler returns the scheduler instance built by the most recent
// Run call, or nil if Run has not been called yet.
func GetScheduler() *Scheduler {
	s := tasker_internal.GetScheduler()
	if s == nil {
		return nil
	}
	return &Scheduler{s: s}
}

// Run parses command line flags, loads configuration, wires logging,
// builds every task contributed by a registered builder, and runs the
// scheduler. It returns the process exit code when the configuration,
// logger or scheduler start fails (callers typically do
// os.Exit(tasker.Run())); it exits the process itself on a task
// builder error or a failed CreateTask (via a fatal log) and on
// SIGINT/SIGTERM (with status 0).
func Run() int { return tasker_internal.Run() }
