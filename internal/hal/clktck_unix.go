//go:build unix

package hal

import "github.com/tklauser/go-sysconf"

// SchedulingClockTicksPerSec reports the host's own scheduling clock
// granularity (SC_CLK_TCK). It has no effect on the scheduler's own
// millisecond tick source (Clock, in clock.go) — it is logged once at startup
// as context for anyone tuning Delay/WaitForNotify quanta against the
// host's real scheduling resolution.
func SchedulingClockTicksPerSec() (int64, error) {
	return sysconf.Sysconf(sysconf.SC_CLK_TCK)
}
