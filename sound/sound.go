// Package sound loads the one percussion asset and plays it through the
// platform's audio output.
package sound

import (
	"errors"
	"time"

	"github.com/gopxl/beep/v2"
)

const sampleRate = beep.SampleRate(44100)

var (
	ErrUnloaded          = errors.New("sound: handle unloaded")
	ErrUnsupportedFormat = errors.New("sound: unsupported file format")
	ErrEmptyAsset        = errors.New("sound: asset has no samples")
)

// Backend creates handles for a sound asset.
type Backend interface {
	// Load decodes the asset at path. An empty path selects the built-in
	// wooden knock.
	Load(path string, volume float64) (Handle, error)
}

// Handle is one loaded, reusable sound.
type Handle interface {
	Play() error
	Replay() error
	Stop() error
	SetVolume(v float64) error
	Unload() error
	Duration() time.Duration
}

// AssetName describes path for logs and the UI.
func AssetName(path string) string {
	if path == "" {
		return "knock"
	}
	return path
}
