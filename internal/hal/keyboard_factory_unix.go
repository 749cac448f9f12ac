//go:build unix

package hal

// NewKeyboard returns the real terminal-backed Keyboard on unix hosts.
func NewKeyboard() Keyboard {
	return NewTermKeyboard()
}
