// Package playback drives the single sound handle: one-shot taps and the
// autoplay loop that a second tap stops.
package playback

import (
	"errors"
	"fmt"
)

type State int32

const (
	Idle State = iota
	PlayingOnce
	Looping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PlayingOnce:
		return "playing"
	case Looping:
		return "looping"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// ErrClosed is returned by operations on a controller after Close.
var ErrClosed = errors.New("playback: controller closed")

// LoadError reports that the sound asset could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	path := e.Path
	if path == "" {
		path = "built-in knock"
	}
	return fmt.Sprintf("load %s: %v", path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// OperationError reports a failed play, replay, stop or volume call on a
// loaded handle.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *OperationError) Unwrap() error { return e.Err }
