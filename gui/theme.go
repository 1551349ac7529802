//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"woodenfish/settings"
)

// fishTheme is black on white for light and white on black for dark;
// everything else comes from the default theme in the matching variant.
type fishTheme struct {
	variant fyne.ThemeVariant
}

func themeFor(t settings.Theme) *fishTheme {
	if t == settings.ThemeDark {
		return &fishTheme{variant: theme.VariantDark}
	}
	return &fishTheme{variant: theme.VariantLight}
}

func (f *fishTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	dark := f.variant == theme.VariantDark
	switch name {
	case theme.ColorNameBackground:
		if dark {
			return color.Black
		}
		return color.White
	case theme.ColorNameForeground:
		if dark {
			return color.White
		}
		return color.Black
	}
	return theme.DefaultTheme().Color(name, f.variant)
}

func (f *fishTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (f *fishTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (f *fishTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
