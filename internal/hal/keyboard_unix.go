//go:build unix

package hal

import (
	"os"

	"golang.org/x/sys/unix"
)

// TermKeyboard reads single keystrokes from the controlling terminal
// without waiting for Enter, by putting it into non-canonical,
// no-echo mode (the Go equivalent of the console driver the original
// HAL_getch()/HAL_Pause() sit on top of).
type TermKeyboard struct {
	keys chan byte
	orig unix.Termios
	fd   int
	ok   bool
}

// NewTermKeyboard attempts to put stdin into raw mode and starts a
// background reader goroutine. If stdin isn't a terminal (piped input,
// a test harness, a service with no console) it falls back to behaving
// like NullKeyboard rather than failing.
func NewTermKeyboard() *TermKeyboard {
	fd := int(os.Stdin.Fd())
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	tk := &TermKeyboard{keys: make(chan byte, 16), fd: fd}
	if err != nil {
		return tk
	}
	tk.orig = *termios
	raw := *termios
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return tk
	}
	tk.ok = true

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 {
				select {
				case tk.keys <- buf[0]:
				default:
					// Drop the keystroke rather than block; the scheduler
					// only ever cares about the most recent "is a key
					// pending" answer.
				}
			}
		}
	}()

	return tk
}

// Restore puts the terminal back into its original mode. Safe to call
// even if raw mode was never entered.
func (tk *TermKeyboard) Restore() {
	if tk.ok {
		_ = unix.IoctlSetTermios(tk.fd, ioctlSetTermios, &tk.orig)
	}
}

func (tk *TermKeyboard) TryReadKey() int {
	select {
	case b := <-tk.keys:
		return int(b)
	default:
		return -1
	}
}

func (tk *TermKeyboard) WaitForKey(expected byte) {
	for b := range tk.keys {
		if b == expected {
			return
		}
	}
}
