package window

import "time"

// Mode is the overlay layout.
type Mode string

const (
	ModeBar Mode = "bar"
	ModeDot Mode = "dot"
)

// Valid reports whether mode names a layout.
func (mode Mode) Valid() bool {
	return mode == ModeBar || mode == ModeDot
}

// ParseMode maps anything other than "dot" to the bar layout.
func ParseMode(value string) Mode {
	if Mode(value) == ModeDot {
		return ModeDot
	}
	return ModeBar
}

// Rect is a window rectangle in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

const (
	barWidth  = 420
	barHeight = 64
	dotSize   = 56

	overlayTopMargin = 10

	panelGap           = 6
	panelDefaultHeight = 300
	panelInitialHeight = 520
	panelMinHeight     = 120
	panelFloorHeight   = 240
	panelCeilHeight    = 820
	panelBottomMargin  = 12
	panelFallbackAsk   = 200
)

// PanelLeaveDelay is how long the leave transition runs before the panel hides.
const PanelLeaveDelay = 190 * time.Millisecond

// OverlaySize returns the overlay dimensions for mode.
func OverlaySize(mode Mode) (width, height int) {
	if mode == ModeDot {
		return dotSize, dotSize
	}
	return barWidth, barHeight
}

// PositionOverlay centres the overlay horizontally near the top of the work area.
func PositionOverlay(workArea Rect, mode Mode) Rect {
	width, height := OverlaySize(mode)
	return Rect{
		X:      workArea.X + roundHalf(workArea.Width-width),
		Y:      max(workArea.Y+overlayTopMargin, overlayTopMargin),
		Width:  width,
		Height: height,
	}
}

// PositionPanel anchors the panel below the overlay, matching its width and
// keeping height. A height of zero means the panel has no size yet.
func PositionPanel(overlay Rect, height int) Rect {
	if height <= 0 {
		height = panelDefaultHeight
	}
	return Rect{
		X:      overlay.X,
		Y:      overlay.Y + overlay.Height + panelGap,
		Width:  overlay.Width,
		Height: height,
	}
}

// ClampPanelHeight bounds a requested panel height so the panel stays on screen.
func ClampPanelHeight(overlay, workArea Rect, desired int) int {
	y := overlay.Y + overlay.Height + panelGap
	maxHeight := max(panelFloorHeight, min(workArea.Height-(y-workArea.Y)-panelBottomMargin, panelCeilHeight))
	return max(panelMinHeight, min(desired, maxHeight))
}

// roundHalf halves n rounding half away from zero, like Math.round for
// positive values.
func roundHalf(n int) int {
	if n >= 0 {
		return (n + 1) / 2
	}
	return -((-n) / 2)
}
