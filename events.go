package main

import (
	"woodenfish/playback"
	"woodenfish/settings"
)

// EventSink abstracts the display layer so the Bubble Tea TUI, the fyne
// GUI and the headless modes receive the same settings and playback events.
type EventSink interface {
	SettingsChanged(s settings.Settings)
	PlaybackState(state playback.State, plays int64)
	PlaybackError(err error)
}

// controls is what a display layer may do to the app.
type controls interface {
	Tap()
	Stop()
	Settings() settings.Settings
	SetSpeed(v float64)
	SetVolume(v float64)
	SetTheme(t settings.Theme)
	SetAutoPlay(on bool)
}

type nopSink struct{}

func (nopSink) SettingsChanged(settings.Settings)   {}
func (nopSink) PlaybackState(playback.State, int64) {}
func (nopSink) PlaybackError(error)                 {}
