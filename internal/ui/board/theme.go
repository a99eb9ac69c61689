package board

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"focusflow/internal/core/model"
)

// variantTheme forces the light or dark variant of the default theme.
type variantTheme struct {
	variant fyne.ThemeVariant
}

func (custom variantTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, custom.variant)
}

func (custom variantTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (custom variantTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (custom variantTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}

func themeFor(value model.Theme) fyne.Theme {
	if value == model.ThemeLight {
		return variantTheme{variant: theme.VariantLight}
	}
	return variantTheme{variant: theme.VariantDark}
}

// applyTheme must run on the UI thread.
func (view *View) applyTheme(value model.Theme) {
	if value == "" {
		value = model.ThemeDark
	}
	next := themeFor(value)
	if current, ok := view.app.Settings().Theme().(variantTheme); ok && current == next {
		return
	}
	view.app.Settings().SetTheme(next)
}
