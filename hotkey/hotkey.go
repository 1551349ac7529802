// Package hotkey registers the global Ctrl+Shift+Space combination that
// taps the fish while another window has focus.
package hotkey

// Combo is the human-readable binding.
const Combo = "Ctrl+Shift+Space"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// notify delivers without blocking; a pending signal already covers the
// press being reported.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
