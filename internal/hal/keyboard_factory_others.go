//go:build !unix

package hal

// NewKeyboard returns a no-op Keyboard on hosts without a termios API.
func NewKeyboard() Keyboard {
	return NullKeyboard{}
}
