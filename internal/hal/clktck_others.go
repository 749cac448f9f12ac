//go:build !unix

package hal

import "errors"

// SchedulingClockTicksPerSec is not meaningful outside unix-like hosts.
func SchedulingClockTicksPerSec() (int64, error) {
	return 0, errors.New("hal: SC_CLK_TCK not available on this platform")
}
