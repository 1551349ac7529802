//go:build gui

package gui

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"woodenfish/fish"
	"woodenfish/settings"
)

const (
	cellSize    = 8
	strikeDecay = 0.08
)

var palettes = map[settings.Theme][fish.NumColors]color.Color{
	settings.ThemeLight: {
		color.White,                    // empty
		color.RGBA{135, 95, 0, 255},    // outline
		color.RGBA{215, 175, 95, 255},  // body
		color.RGBA{175, 135, 95, 255},  // grain
		color.RGBA{95, 0, 0, 255},      // slot
		color.Black,                    // eye
		color.RGBA{135, 95, 0, 255},    // handle
		color.RGBA{175, 95, 0, 255},    // head
		color.RGBA{255, 135, 0, 255},   // spark
	},
	settings.ThemeDark: {
		color.Black,
		color.RGBA{215, 175, 135, 255},
		color.RGBA{175, 135, 95, 255},
		color.RGBA{135, 95, 0, 255},
		color.RGBA{18, 18, 18, 255},
		color.White,
		color.RGBA{215, 175, 135, 255},
		color.RGBA{215, 135, 95, 255},
		color.RGBA{255, 215, 0, 255},
	},
}

// FishWidget draws the wooden fish and taps it when clicked.
type FishWidget struct {
	widget.BaseWidget
	mu     sync.Mutex
	strike float64
	theme  settings.Theme
	onTap  func()
	stopCh chan struct{}
}

func NewFishWidget(onTap func()) *FishWidget {
	f := &FishWidget{theme: settings.ThemeLight, onTap: onTap, stopCh: make(chan struct{})}
	f.ExtendBaseWidget(f)
	go f.animate()
	return f
}

func (f *FishWidget) Tapped(*fyne.PointEvent) {
	if f.onTap != nil {
		f.onTap()
	}
}

// Strike starts the knock flash.
func (f *FishWidget) Strike() {
	f.mu.Lock()
	f.strike = 1
	f.mu.Unlock()
}

func (f *FishWidget) SetTheme(t settings.Theme) {
	f.mu.Lock()
	f.theme = t
	f.mu.Unlock()
	fyne.Do(f.Refresh)
}

func (f *FishWidget) Stop() {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
}

// animate only refreshes while a flash is fading.
func (f *FishWidget) animate() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-f.stopCh:
			return
		case <-ticker.C:
			f.mu.Lock()
			active := f.strike > 0
			if active {
				f.strike = max(0, f.strike-strikeDecay)
			}
			f.mu.Unlock()
			if active {
				fyne.Do(f.Refresh)
			}
		}
	}
}

func (f *FishWidget) MinSize() fyne.Size {
	return fyne.NewSize(fish.Width*cellSize, fish.Height*cellSize)
}

func (f *FishWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &fishRenderer{fish: f}
	r.rects = make([][]*canvas.Rectangle, fish.Height)
	for y := range fish.Height {
		r.rects[y] = make([]*canvas.Rectangle, fish.Width)
		for x := range fish.Width {
			r.rects[y][x] = canvas.NewRectangle(color.Transparent)
		}
	}
	r.Refresh()
	return r
}

type fishRenderer struct {
	fish  *FishWidget
	rects [][]*canvas.Rectangle
}

func (r *fishRenderer) Layout(size fyne.Size) {
	cellW := size.Width / fish.Width
	cellH := size.Height / fish.Height
	for y := range fish.Height {
		for x := range fish.Width {
			r.rects[y][x].Move(fyne.NewPos(float32(x)*cellW, float32(y)*cellH))
			r.rects[y][x].Resize(fyne.NewSize(cellW, cellH))
		}
	}
}

func (r *fishRenderer) MinSize() fyne.Size {
	return r.fish.MinSize()
}

func (r *fishRenderer) Refresh() {
	r.fish.mu.Lock()
	strike, theme := r.fish.strike, r.fish.theme
	r.fish.mu.Unlock()

	colors, ok := palettes[theme]
	if !ok {
		colors = palettes[settings.ThemeLight]
	}
	pixels := fish.Pixels(strike)
	for y := range fish.Height {
		for x := range fish.Width {
			r.rects[y][x].FillColor = colors[pixels[y][x]]
			r.rects[y][x].Refresh()
		}
	}
}

func (r *fishRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, fish.Width*fish.Height)
	for y := range fish.Height {
		for x := range fish.Width {
			objs = append(objs, r.rects[y][x])
		}
	}
	return objs
}

func (r *fishRenderer) Destroy() {
	r.fish.Stop()
}
