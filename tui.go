package main

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"woodenfish/fish"
	"woodenfish/playback"
	"woodenfish/settings"
)

// TUI message types
type settingsMsg struct{ Settings settings.Settings }
type playbackMsg struct {
	State playback.State
	Plays int64
}
type playbackErrMsg struct{ Err error }
type tickMsg time.Time

type screen int

const (
	screenMain screen = iota
	screenSettings
)

type settingsRow int

const (
	rowAutoPlay settingsRow = iota
	rowSpeed
	rowVolume
	rowTheme
	numRows
)

const strikeDecay = 0.12

type keyMap struct {
	Tap    key.Binding
	Stop   key.Binding
	Screen key.Binding
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Toggle key.Binding
	Quit   key.Binding

	settings bool
}

func newKeyMap() keyMap {
	return keyMap{
		Tap:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "tap")),
		Stop:   key.NewBinding(key.WithKeys("s", "esc"), key.WithHelp("s", "stop")),
		Screen: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "settings")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/h", "less")),
		Right:  key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/l", "more")),
		Toggle: key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	if k.settings {
		return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Toggle, k.Screen, k.Quit}
	}
	return []key.Binding{k.Tap, k.Stop, k.Screen, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

type tuiModel struct {
	ctl      controls
	keys     keyMap
	help     help.Model
	bar      progress.Model
	screen   screen
	row      settingsRow
	settings settings.Settings
	state    playback.State
	plays    int64
	strike   float64 // flash left after the last knock, 1 down to 0
	lastErr  string
	width    int
	height   int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

// Pre-computed half-block styles per theme, indexed [top][bottom].
var pixelStyles = map[settings.Theme]*[fish.NumColors][fish.NumColors]lipgloss.Style{}

type palette struct {
	fg, bg, dim, accent, warn lipgloss.Color
	pixels                    [fish.NumColors]lipgloss.Color
}

var palettes = map[settings.Theme]palette{
	settings.ThemeLight: {
		fg: "16", bg: "231", dim: "244", accent: "130", warn: "160",
		pixels: [fish.NumColors]lipgloss.Color{
			fish.Empty: "231", fish.Outline: "94", fish.Body: "179", fish.Grain: "137",
			fish.Slot: "52", fish.Eye: "16", fish.Handle: "94", fish.Head: "130", fish.Spark: "208",
		},
	},
	settings.ThemeDark: {
		fg: "231", bg: "16", dim: "245", accent: "179", warn: "203",
		pixels: [fish.NumColors]lipgloss.Color{
			fish.Empty: "16", fish.Outline: "180", fish.Body: "137", fish.Grain: "94",
			fish.Slot: "233", fish.Eye: "231", fish.Handle: "180", fish.Head: "173", fish.Spark: "220",
		},
	},
}

func init() {
	for theme, p := range palettes {
		var styles [fish.NumColors][fish.NumColors]lipgloss.Style
		for top := range fish.NumColors {
			for bot := range fish.NumColors {
				styles[top][bot] = lipgloss.NewStyle().
					Foreground(p.pixels[top]).
					Background(p.pixels[bot])
			}
		}
		pixelStyles[theme] = &styles
	}
}

func newTUIModel(ctl controls) tuiModel {
	return tuiModel{
		ctl:      ctl,
		keys:     newKeyMap(),
		help:     help.New(),
		bar:      progress.New(progress.WithoutPercentage(), progress.WithWidth(24)),
		settings: ctl.Settings(),
	}
}

func NewTUIProgram(ctl controls) *tea.Program {
	return tea.NewProgram(newTUIModel(ctl), tea.WithAltScreen(), tea.WithMouseCellMotion())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards app events into the running program.
type tuiSink struct{}

func (tuiSink) SettingsChanged(s settings.Settings) { tuiSend(settingsMsg{Settings: s}) }
func (tuiSink) PlaybackError(err error)             { tuiSend(playbackErrMsg{Err: err}) }

func (tuiSink) PlaybackState(state playback.State, plays int64) {
	tuiSend(playbackMsg{State: state, Plays: plays})
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.strike = math.Max(0, m.strike-strikeDecay)
		return m, tuiTick()

	case settingsMsg:
		m.settings = msg.Settings

	case playbackMsg:
		if msg.Plays > m.plays {
			m.strike = 1
			m.lastErr = ""
		}
		m.state = msg.State
		m.plays = msg.Plays

	case playbackErrMsg:
		m.lastErr = msg.Err.Error()

	case tea.MouseMsg:
		if m.screen == screenMain && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.ctl.Tap()
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Screen):
		if m.screen == screenMain {
			m.screen = screenSettings
		} else {
			m.screen = screenMain
		}
		m.keys.settings = m.screen == screenSettings
		return m, nil
	}

	if m.screen == screenMain {
		switch {
		case key.Matches(msg, m.keys.Tap):
			m.ctl.Tap()
		case key.Matches(msg, m.keys.Stop):
			m.ctl.Stop()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.row = (m.row + numRows - 1) % numRows
	case key.Matches(msg, m.keys.Down):
		m.row = (m.row + 1) % numRows
	case key.Matches(msg, m.keys.Left):
		m.adjust(-1)
	case key.Matches(msg, m.keys.Right):
		m.adjust(1)
	case key.Matches(msg, m.keys.Toggle):
		m.adjust(0)
	}
	return m, nil
}

// adjust changes the selected row. dir is -1 or 1 for sliders; toggle rows
// flip on any direction.
func (m *tuiModel) adjust(dir int) {
	s := m.ctl.Settings()
	switch m.row {
	case rowAutoPlay:
		m.ctl.SetAutoPlay(!s.AutoPlay)
	case rowTheme:
		m.ctl.SetTheme(s.Theme.Toggle())
	case rowSpeed:
		if dir != 0 {
			m.ctl.SetSpeed(settings.ClampSpeed(roundTo(s.Speed+float64(dir)*settings.SpeedStep, 10)))
		}
	case rowVolume:
		if dir != 0 {
			m.ctl.SetVolume(settings.ClampVolume(roundTo(s.Volume+float64(dir)*settings.VolumeStep, 100)))
		}
	}
	m.settings = m.ctl.Settings()
}

func roundTo(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	p := palettes[m.settings.Theme]
	if !m.settings.Theme.Valid() {
		p = palettes[settings.ThemeLight]
	}

	var body string
	if m.screen == screenSettings {
		body = m.viewSettings(p)
	} else {
		body = m.viewMain(p)
	}

	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(p.fg).Background(p.bg).Bold(true)
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(p.dim).Background(p.bg)
	m.help.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(p.dim).Background(p.bg)
	body += "\n\n" + m.help.View(m.keys)

	return lipgloss.NewStyle().
		Foreground(p.fg).
		Background(p.bg).
		Width(m.width).
		Height(m.height).
		Padding(1, 2).
		Render(body)
}

func (m tuiModel) viewMain(p palette) string {
	text := lipgloss.NewStyle().Foreground(p.fg).Background(p.bg)
	dim := text.Foreground(p.dim)

	var lines []string
	lines = append(lines, renderFish(m.strike, m.settings.Theme))

	switch m.state {
	case playback.Looping:
		lines = append(lines, text.Foreground(p.accent).Bold(true).
			Render(fmt.Sprintf("● LOOPING every %.1fs", m.settings.Speed)))
	case playback.PlayingOnce:
		lines = append(lines, text.Foreground(p.accent).Render("♪ KNOCK"))
	default:
		lines = append(lines, dim.Render("○ READY"))
	}

	mode := "single"
	if m.settings.AutoPlay {
		mode = "autoplay"
	}
	lines = append(lines, dim.Render(fmt.Sprintf("knocks: %d   mode: %s   volume: %d%%",
		m.plays, mode, int(math.Round(m.settings.Volume*100)))))

	if m.lastErr != "" {
		lines = append(lines, text.Foreground(p.warn).Render("✗ "+m.lastErr))
	}
	return strings.Join(lines, "\n")
}

func (m tuiModel) viewSettings(p palette) string {
	text := lipgloss.NewStyle().Foreground(p.fg).Background(p.bg)
	selected := text.Foreground(p.accent).Bold(true)
	bar := m.bar
	bar.FullColor = string(p.accent)
	bar.EmptyColor = string(p.dim)

	s := m.settings
	rows := [numRows]string{
		rowAutoPlay: "Autoplay " + onOff(s.AutoPlay),
		rowSpeed: fmt.Sprintf("Interval: %.1fs  %s", s.Speed,
			bar.ViewAs((s.Speed-settings.MinSpeed)/(settings.MaxSpeed-settings.MinSpeed))),
		rowVolume: fmt.Sprintf("Volume: %d%%  %s", int(math.Round(s.Volume*100)),
			bar.ViewAs(s.Volume)),
		rowTheme: "Theme [" + themeLabel(s.Theme) + "]",
	}

	lines := []string{text.Bold(true).Render("Settings"), ""}
	for i, r := range rows {
		if settingsRow(i) == m.row {
			lines = append(lines, selected.Render("> "+r))
		} else {
			lines = append(lines, text.Render("  "+r))
		}
	}
	return strings.Join(lines, "\n")
}

func onOff(on bool) string {
	if on {
		return "[on]"
	}
	return "[off]"
}

// themeLabel names the theme a toggle switches to.
func themeLabel(t settings.Theme) string {
	if t == settings.ThemeDark {
		return "Light Mode"
	}
	return "Dark Mode"
}

// renderFish draws two pixel rows per text row with upper half blocks.
func renderFish(strike float64, theme settings.Theme) string {
	styles, ok := pixelStyles[theme]
	if !ok {
		styles = pixelStyles[settings.ThemeLight]
	}
	pixels := fish.Pixels(strike)

	var b strings.Builder
	for cy := 0; cy < fish.Height/2; cy++ {
		top, bot := pixels[cy*2], pixels[cy*2+1]
		for cx := 0; cx < fish.Width; cx++ {
			b.WriteString(styles[top[cx]][bot[cx]].Render("▀"))
		}
		if cy < fish.Height/2-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
