//go:build gui

package gui

import (
	"bytes"
	"image"
	"image/png"

	"fyne.io/fyne/v2"

	"woodenfish/fish"
	"woodenfish/settings"
)

// trayIcon renders the resting fish as a PNG with a transparent background.
func trayIcon() (fyne.Resource, error) {
	colors := palettes[settings.ThemeLight]
	pixels := fish.Pixels(0)
	img := image.NewNRGBA(image.Rect(0, 0, fish.Width, fish.Height))
	for y := range fish.Height {
		for x := range fish.Width {
			if p := pixels[y][x]; p != fish.Empty {
				img.Set(x, y, colors[p])
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return fyne.NewStaticResource("tray.png", buf.Bytes()), nil
}
