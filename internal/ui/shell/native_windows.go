//go:build windows

package shell

import (
	"syscall"
	"unsafe"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"

	"focusflow/internal/window"
)

// Window rectangles are physical pixels on Windows.
const nativeUsesPixels = true

const nativeCanMove = true

const (
	gwlExStyle     int32 = -20
	wsExLayered          = 0x00080000
	wsExToolWindow       = 0x00000080
	lwaAlpha             = 0x2

	swpNoActivate = 0x0010
	swpShowWindow = 0x0040

	spiGetWorkArea = 0x0030
)

var hwndTopmost = ^uintptr(0)

var (
	user32DLL                      = syscall.NewLazyDLL("user32.dll")
	procGetWindowLongPtrW          = user32DLL.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32DLL.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttributes = user32DLL.NewProc("SetLayeredWindowAttributes")
	procSetWindowPos               = user32DLL.NewProc("SetWindowPos")
	procSystemParametersInfoW      = user32DLL.NewProc("SystemParametersInfoW")
)

type nativeRect struct {
	Left, Top, Right, Bottom int32
}

func nativeWorkArea() (window.Rect, bool) {
	var rect nativeRect
	ok, _, _ := procSystemParametersInfoW.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&rect)), 0)
	if ok == 0 {
		return window.Rect{}, false
	}
	return window.Rect{
		X:      int(rect.Left),
		Y:      int(rect.Top),
		Width:  int(rect.Right - rect.Left),
		Height: int(rect.Bottom - rect.Top),
	}, true
}

// placeNative moves the window to bounds, keeps it above other windows
// without activating it, hides it from the taskbar and applies opacity.
func placeNative(win fyne.Window, bounds window.Rect, opacity float64) {
	nativeWindow, ok := win.(driver.NativeWindow)
	if !ok {
		return
	}

	nativeWindow.RunNative(func(context any) {
		var hwnd uintptr
		switch value := context.(type) {
		case driver.WindowsWindowContext:
			hwnd = value.HWND
		case *driver.WindowsWindowContext:
			hwnd = value.HWND
		default:
			return
		}
		if hwnd == 0 {
			return
		}

		style, _, _ := procGetWindowLongPtrW.Call(hwnd, int32ToUintptr(gwlExStyle))
		if style&(wsExLayered|wsExToolWindow) != wsExLayered|wsExToolWindow {
			procSetWindowLongPtrW.Call(hwnd, int32ToUintptr(gwlExStyle), style|wsExLayered|wsExToolWindow)
		}
		procSetLayeredWindowAttributes.Call(hwnd, 0, uintptr(opacityToAlpha(opacity)), uintptr(lwaAlpha))
		procSetWindowPos.Call(hwnd, hwndTopmost,
			intToUintptr(bounds.X), intToUintptr(bounds.Y),
			intToUintptr(bounds.Width), intToUintptr(bounds.Height),
			swpNoActivate)
	})
}

func opacityToAlpha(opacity float64) uint8 {
	if opacity <= 0 || opacity > 1 {
		return 255
	}
	return uint8(opacity * 255)
}

func int32ToUintptr(value int32) uintptr {
	return uintptr(uint32(value))
}

func intToUintptr(value int) uintptr {
	return uintptr(uint32(int32(value)))
}
