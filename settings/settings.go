// Package settings holds the user's playback and appearance preferences and
// writes every change through to a kv.Store.
package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	MinSpeed  = 0.1
	MaxSpeed  = 3.0
	SpeedStep = 0.1

	MinVolume  = 0.0
	MaxVolume  = 1.0
	VolumeStep = 0.05
)

// Storage keys, one per field.
const (
	KeyAutoPlay = "settings_autoPlay"
	KeySpeed    = "settings_speed"
	KeyVolume   = "settings_volume"
	KeyTheme    = "settings_theme"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Settings is a snapshot of all preferences.
type Settings struct {
	Speed    float64 `json:"speed"` // seconds between loop strikes
	Volume   float64 `json:"volume"`
	Theme    Theme   `json:"theme"`
	AutoPlay bool    `json:"autoPlay"`
}

func Defaults() Settings {
	return Settings{
		Speed:    1.0,
		Volume:   1.0,
		Theme:    ThemeLight,
		AutoPlay: false,
	}
}

// Interval is Speed as a duration, rounded to the millisecond.
func (s Settings) Interval() time.Duration {
	return time.Duration(math.Round(s.Speed*1000)) * time.Millisecond
}

type Field int

const (
	FieldSpeed Field = iota
	FieldVolume
	FieldTheme
	FieldAutoPlay
)

var fieldKeys = [...]string{
	FieldSpeed:    KeySpeed,
	FieldVolume:   KeyVolume,
	FieldTheme:    KeyTheme,
	FieldAutoPlay: KeyAutoPlay,
}

// Key is the storage key the field persists under.
func (f Field) Key() string {
	if int(f) < len(fieldKeys) {
		return fieldKeys[f]
	}
	return ""
}

func (f Field) String() string {
	switch f {
	case FieldSpeed:
		return "speed"
	case FieldVolume:
		return "volume"
	case FieldTheme:
		return "theme"
	case FieldAutoPlay:
		return "autoPlay"
	}
	return "Field(" + strconv.Itoa(int(f)) + ")"
}

// Change is published after a field is updated. Settings is the full
// snapshot after the update.
type Change struct {
	Field    Field
	Settings Settings
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// ClampSpeed limits v to [MinSpeed, MaxSpeed].
func ClampSpeed(v float64) float64 { return clamp(v, MinSpeed, MaxSpeed) }

// ClampVolume limits v to [MinVolume, MaxVolume].
func ClampVolume(v float64) float64 { return clamp(v, MinVolume, MaxVolume) }

// encode renders the stored form of a field's current value.
func encode(f Field, s Settings) (string, error) {
	var v any
	switch f {
	case FieldSpeed:
		v = s.Speed
	case FieldVolume:
		v = s.Volume
	case FieldAutoPlay:
		v = s.AutoPlay
	case FieldTheme:
		return string(s.Theme), nil
	default:
		return "", fmt.Errorf("encode: %v", f)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decode applies a stored value to s. It reports false for values that
// do not parse or have the wrong type; s is left untouched in that case.
func decode(f Field, raw string, s *Settings) bool {
	switch f {
	case FieldSpeed, FieldVolume:
		var v float64
		if err := json.Unmarshal([]byte(raw), &v); err != nil || math.IsNaN(v) {
			return false
		}
		if f == FieldSpeed {
			s.Speed = ClampSpeed(v)
		} else {
			s.Volume = ClampVolume(v)
		}
	case FieldAutoPlay:
		var v bool
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return false
		}
		s.AutoPlay = v
	case FieldTheme:
		var quoted string
		if err := json.Unmarshal([]byte(raw), &quoted); err == nil {
			raw = quoted
		}
		t, err := ParseTheme(raw)
		if err != nil {
			return false
		}
		s.Theme = t
	default:
		return false
	}
	return true
}
