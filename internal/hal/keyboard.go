// Console key polling. Spec.md §6 calls for try_read_key (non-blocking,
// -1 if nothing pending) and wait_for_key (blocks until a specific key
// arrives) so the scheduler's main loop can offer a "press any key to
// dump stats" diagnostic without blocking task dispatch on stdin while
// no key has been pressed.

package hal

// SpaceKey is the key xTaskDumpStats waits for before resuming (0x20 in
// the original C source).
const SpaceKey = ' '

// Keyboard is the host console input dependency.
type Keyboard interface {
	// TryReadKey returns the next buffered keycode, or -1 if none is
	// pending. It never blocks.
	TryReadKey() int
	// WaitForKey blocks until expected is read, discarding anything else.
	WaitForKey(expected byte)
}

// NullKeyboard is a Keyboard that never has input pending, for use when
// stdin isn't a usable console (tests, services, piped input).
type NullKeyboard struct{}

func (NullKeyboard) TryReadKey() int { return -1 }
func (NullKeyboard) WaitForKey(byte) {}

// Restorer is implemented by Keyboard implementations that put the
// terminal into a non-default mode and need to undo it on shutdown
// (see TermKeyboard, in keyboard_unix.go).
type Restorer interface {
	Restore()
}
