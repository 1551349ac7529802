//go:build gui

package gui

import (
	"fmt"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"woodenfish/playback"
	"woodenfish/settings"
)

// Controls is what the window may do to the running app.
type Controls interface {
	Tap()
	Stop()
	Settings() settings.Settings
	SetSpeed(v float64)
	SetVolume(v float64)
	SetTheme(t settings.Theme)
	SetAutoPlay(on bool)
}

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	fish    *FishWidget
	onReady func()
	done    chan struct{}

	mu    sync.Mutex
	ctl   Controls
	plays int64

	status   *widget.Label
	knocks   *widget.Label
	errLine  *widget.Label
	autoPlay *widget.Check
	theme    *widget.Button
	speed    *widget.Slider
	speedLbl *widget.Label
	volume   *widget.Slider
	volLbl   *widget.Label
	// syncing is set while settings are copied into the widgets so their
	// change callbacks don't write the same values back.
	syncing  bool
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady, done: make(chan struct{})}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.woodenfish.gui")
	a.fyneApp.Settings().SetTheme(themeFor(settings.ThemeLight))

	if desk, ok := a.fyneApp.(desktop.App); ok {
		icon, err := trayIcon()
		if err != nil {
			return fmt.Errorf("tray icon: %w", err)
		}
		menu := fyne.NewMenu("woodenfish",
			fyne.NewMenuItem("Tap", a.tap),
			fyne.NewMenuItem("Stop", a.stop),
			fyne.NewMenuItem("Show", func() { a.window.Show() }),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(icon)
	}

	a.window = a.fyneApp.NewWindow("Wooden Fish")
	a.window.SetMaster()
	a.fish = NewFishWidget(a.tap)
	a.window.SetContent(container.NewAppTabs(
		container.NewTabItem("Fish", a.mainTab()),
		container.NewTabItem("Settings", a.settingsTab()),
	))
	a.window.Resize(a.fish.MinSize().Add(fyne.NewSize(40, 160)))

	go a.onReady()

	a.window.ShowAndRun()
	a.fish.Stop()
	close(a.done)
	return nil
}

func (a *App) mainTab() fyne.CanvasObject {
	a.status = widget.NewLabel("Status: idle")
	a.knocks = widget.NewLabel("Knocks: 0")
	a.errLine = widget.NewLabel("")
	a.errLine.Wrapping = fyne.TextWrapWord
	a.errLine.Hide()

	buttons := container.NewGridWithColumns(2,
		widget.NewButton("Tap", a.tap),
		widget.NewButton("Stop", a.stop),
	)
	return container.NewVBox(
		container.NewCenter(a.fish),
		container.NewHBox(a.status, a.knocks),
		buttons,
		a.errLine,
	)
}

func (a *App) settingsTab() fyne.CanvasObject {
	a.autoPlay = widget.NewCheck("Autoplay", func(on bool) {
		a.withControls(func(c Controls) { c.SetAutoPlay(on) })
	})

	a.speed = widget.NewSlider(settings.MinSpeed, settings.MaxSpeed)
	a.speed.Step = 0.1
	a.speedLbl = widget.NewLabel("")
	a.speed.OnChanged = func(v float64) {
		a.speedLbl.SetText(fmt.Sprintf("Interval: %.1fs", v))
		a.withControls(func(c Controls) { c.SetSpeed(math.Round(v*10) / 10) })
	}

	a.volume = widget.NewSlider(settings.MinVolume, settings.MaxVolume)
	a.volume.Step = 0.05
	a.volLbl = widget.NewLabel("")
	a.volume.OnChanged = func(v float64) {
		a.volLbl.SetText(fmt.Sprintf("Volume: %d%%", int(math.Round(v*100))))
		a.withControls(func(c Controls) { c.SetVolume(v) })
	}

	// the button names the theme it switches to
	a.theme = widget.NewButton("Dark Mode", func() {
		a.withControls(func(c Controls) { c.SetTheme(c.Settings().Theme.Toggle()) })
	})

	return container.NewVBox(
		a.autoPlay,
		a.speedLbl, a.speed,
		a.volLbl, a.volume,
		a.theme,
	)
}

// Attach connects the window to the app once run has built it.
func (a *App) Attach(c Controls) {
	a.mu.Lock()
	a.ctl = c
	a.mu.Unlock()
}

// Done is closed when the window has been closed.
func (a *App) Done() <-chan struct{} { return a.done }

func (a *App) Quit() {
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}

func (a *App) tap()  { a.withControls(Controls.Tap) }
func (a *App) stop() { a.withControls(Controls.Stop) }

func (a *App) withControls(fn func(Controls)) {
	a.mu.Lock()
	c, syncing := a.ctl, a.syncing
	a.mu.Unlock()
	if c == nil || syncing {
		return
	}
	fn(c)
}

// applySettings runs on the fyne goroutine.
func (a *App) applySettings(s settings.Settings) {
	a.mu.Lock()
	a.syncing = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.syncing = false
		a.mu.Unlock()
	}()

	a.autoPlay.SetChecked(s.AutoPlay)
	a.speed.SetValue(s.Speed)
	a.speedLbl.SetText(fmt.Sprintf("Interval: %.1fs", s.Speed))
	a.volume.SetValue(s.Volume)
	a.volLbl.SetText(fmt.Sprintf("Volume: %d%%", int(math.Round(s.Volume*100))))
	if s.Theme == settings.ThemeDark {
		a.theme.SetText("Light Mode")
	} else {
		a.theme.SetText("Dark Mode")
	}

	a.fyneApp.Settings().SetTheme(themeFor(s.Theme))
	a.fish.SetTheme(s.Theme)
}

// EventSink implementation. Sink methods are called off the fyne
// goroutine, so widget updates go through fyne.Do.
func (a *App) SettingsChanged(s settings.Settings) {
	fyne.Do(func() { a.applySettings(s) })
}

func (a *App) PlaybackState(state playback.State, plays int64) {
	a.mu.Lock()
	struck := plays > a.plays
	a.plays = plays
	a.mu.Unlock()
	if struck {
		a.fish.Strike()
	}
	fyne.Do(func() {
		a.status.SetText("Status: " + state.String())
		a.knocks.SetText(fmt.Sprintf("Knocks: %d", plays))
		if state != playback.Idle {
			a.errLine.Hide()
		}
	})
}

func (a *App) PlaybackError(err error) {
	fyne.Do(func() {
		a.errLine.SetText("Error: " + err.Error())
		a.errLine.Show()
	})
}
