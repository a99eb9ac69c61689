//go:build !windows

package shell

import (
	"fyne.io/fyne/v2"

	"focusflow/internal/window"
)

// Window rectangles are fyne units elsewhere.
const nativeUsesPixels = false

// nativeCanMove is false because placeNative cannot move windows here, so
// dragging the overlay does nothing.
const nativeCanMove = false

// fyne cannot report the work area or move windows outside Windows. The
// overlay keeps the position the window manager gives it.
func nativeWorkArea() (window.Rect, bool) {
	return window.Rect{}, false
}

func placeNative(fyne.Window, window.Rect, float64) {}
