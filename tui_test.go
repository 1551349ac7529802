package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woodenfish/fish"
	"woodenfish/playback"
	"woodenfish/settings"
)

type fakeControls struct {
	s     settings.Settings
	taps  int
	stops int
}

func newFakeControls() *fakeControls { return &fakeControls{s: settings.Defaults()} }

func (f *fakeControls) Tap()                        { f.taps++ }
func (f *fakeControls) Stop()                       { f.stops++ }
func (f *fakeControls) Settings() settings.Settings { return f.s }
func (f *fakeControls) SetSpeed(v float64)          { f.s.Speed = settings.ClampSpeed(v) }
func (f *fakeControls) SetVolume(v float64)         { f.s.Volume = settings.ClampVolume(v) }
func (f *fakeControls) SetTheme(t settings.Theme)   { f.s.Theme = t }
func (f *fakeControls) SetAutoPlay(on bool)         { f.s.AutoPlay = on }

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func send(m tuiModel, msgs ...tea.Msg) tuiModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(tuiModel)
	}
	return m
}

func sized(ctl controls) tuiModel {
	return send(newTUIModel(ctl), tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestTUITapAndStop(t *testing.T) {
	ctl := newFakeControls()
	m := sized(ctl)

	m = send(m, keySpace, tea.KeyMsg{Type: tea.KeyEnter}, keyRunes("s"))
	assert.Equal(t, 2, ctl.taps)
	assert.Equal(t, 1, ctl.stops)

	m = send(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, 3, ctl.taps)

	// clicks do nothing on the settings screen
	send(m, keyTab, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, 3, ctl.taps)
}

func TestTUIQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := sized(newFakeControls()).Update(k)
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok, "key %q should quit", k.String())
	}
}

func TestTUISettingsScreen(t *testing.T) {
	ctl := newFakeControls()
	m := send(sized(ctl), keyTab)
	require.Equal(t, screenSettings, m.screen)

	// autoplay row
	m = send(m, keySpace)
	assert.True(t, ctl.s.AutoPlay)

	// interval row
	m = send(m, keyDown, keyRight, keyRight)
	assert.InDelta(t, 1.2, ctl.s.Speed, 1e-9)
	m = send(m, keyLeft)
	assert.InDelta(t, 1.1, ctl.s.Speed, 1e-9)
	assert.Contains(t, m.View(), "Interval: 1.1s")

	// volume row, already at the top
	m = send(m, keyDown, keyRight)
	assert.Equal(t, 1.0, ctl.s.Volume)
	m = send(m, keyLeft, keyLeft)
	assert.InDelta(t, 0.9, ctl.s.Volume, 1e-9)
	assert.Contains(t, m.View(), "Volume: 90%")

	// theme row names the mode it switches to
	m = send(m, keyDown)
	assert.Contains(t, m.View(), "Theme [Dark Mode]")
	m = send(m, keySpace)
	assert.Equal(t, settings.ThemeDark, ctl.s.Theme)
	assert.Contains(t, m.View(), "Theme [Light Mode]")
	assert.NotContains(t, m.View(), "Dark Mode")

	// wraps back to autoplay
	m = send(m, keyDown)
	assert.Equal(t, rowAutoPlay, m.row)
	m = send(m, keyUp)
	assert.Equal(t, rowTheme, m.row)

	m = send(m, keyTab)
	assert.Equal(t, screenMain, m.screen)
	assert.Equal(t, 0, ctl.taps, "settings keys must not tap")
}

func TestTUISpeedBounds(t *testing.T) {
	ctl := newFakeControls()
	ctl.s.Speed = settings.MinSpeed
	m := send(sized(ctl), keyTab, keyDown, keyLeft)
	assert.Equal(t, settings.MinSpeed, ctl.s.Speed)

	ctl.s.Speed = settings.MaxSpeed
	send(m, keyRight)
	assert.Equal(t, settings.MaxSpeed, ctl.s.Speed)
}

func TestTUIPlaybackEvents(t *testing.T) {
	m := sized(newFakeControls())
	assert.Contains(t, m.View(), "READY")

	m = send(m, playbackMsg{State: playback.Looping, Plays: 1})
	assert.Equal(t, 1.0, m.strike)
	assert.Contains(t, m.View(), "LOOPING every 1.0s")
	assert.Contains(t, m.View(), "knocks: 1")

	for range 20 {
		m = send(m, tickMsg{})
	}
	assert.Zero(t, m.strike)

	// a state change without a new knock does not flash
	m = send(m, playbackMsg{State: playback.Idle, Plays: 1})
	assert.Zero(t, m.strike)

	m = send(m, playbackErrMsg{Err: errors.New("load knock.wav: no such file")})
	assert.Contains(t, m.View(), "no such file")
	m = send(m, playbackMsg{State: playback.PlayingOnce, Plays: 2})
	assert.NotContains(t, m.View(), "no such file")
	assert.Contains(t, m.View(), "KNOCK")
}

func TestTUISettingsEvent(t *testing.T) {
	m := sized(newFakeControls())
	s := settings.Defaults()
	s.AutoPlay = true
	s.Volume = 0.35
	m = send(m, settingsMsg{Settings: s})
	v := m.View()
	assert.Contains(t, v, "mode: autoplay")
	assert.Contains(t, v, "volume: 35%")
}

func TestRenderFish(t *testing.T) {
	for _, theme := range []settings.Theme{settings.ThemeLight, settings.ThemeDark, "bogus"} {
		out := renderFish(0, theme)
		assert.Len(t, strings.Split(out, "\n"), fish.Height/2)
	}
}

func TestTUILoadingBeforeSize(t *testing.T) {
	assert.Equal(t, "Loading...", newTUIModel(newFakeControls()).View())
}
