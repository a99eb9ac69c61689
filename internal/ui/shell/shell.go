// Package shell hosts the overlay and panel surfaces in undecorated fyne
// windows and implements window.Manager for the coordinator.
package shell

import (
	"log/slog"
	"math"
	"sync"

	"fyne.io/fyne/v2"

	"focusflow/internal/logging"
	"focusflow/internal/window"
)

// Surface is content hosted by a shell window.
type Surface interface {
	Content() fyne.CanvasObject
	Attach()
	Detach()
}

// Options configures a Manager.
type Options struct {
	Overlay Surface
	Panel   Surface
	Opacity float64
	// OnOverlayClosed runs when the user closes the overlay natively.
	OnOverlayClosed func()
	// WorkArea is used when the platform cannot report one.
	WorkArea window.Rect
	Logger   *slog.Logger
	// Do runs f on the UI thread. It defaults to fyne.Do.
	Do func(f func())
}

// Manager creates fyne windows for the coordinator.
type Manager struct {
	app     fyne.App
	options Options
	logger  *slog.Logger
	do      func(func())

	mu      sync.Mutex
	opacity float64
	handles []*Handle
}

var defaultWorkArea = window.Rect{Width: 1920, Height: 1040}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New returns a manager bound to app.
func New(app fyne.App, options Options) *Manager {
	if options.WorkArea.Width <= 0 || options.WorkArea.Height <= 0 {
		options.WorkArea = defaultWorkArea
	}
	manager := &Manager{
		app:     app,
		options: options,
		logger:  options.Logger,
		do:      options.Do,
		opacity: options.Opacity,
	}
	if manager.logger == nil {
		manager.logger = logging.Nop()
	}
	if manager.do == nil {
		manager.do = fyne.Do
	}
	return manager
}

// CreateOverlay implements window.Manager.
func (manager *Manager) CreateOverlay(bounds window.Rect) (window.Handle, error) {
	return manager.create("FocusFlow", manager.options.Overlay, bounds, manager.options.OnOverlayClosed), nil
}

// CreatePanel implements window.Manager.
func (manager *Manager) CreatePanel(bounds window.Rect) (window.Handle, error) {
	return manager.create("FocusFlow Panel", manager.options.Panel, bounds, nil), nil
}

// WorkArea implements window.Manager.
func (manager *Manager) WorkArea() window.Rect {
	if area, ok := nativeWorkArea(); ok {
		return area
	}
	return manager.options.WorkArea
}

// SetOpacity changes the native opacity of every live window.
func (manager *Manager) SetOpacity(opacity float64) {
	manager.mu.Lock()
	manager.opacity = opacity
	handles := append([]*Handle(nil), manager.handles...)
	manager.mu.Unlock()

	for _, handle := range handles {
		handle.applyNative()
	}
}

// DragDelta converts a drag offset on the overlay from fyne units to window
// rectangle units. ok is false where windows cannot be moved.
func (manager *Manager) DragDelta(offset fyne.Delta) (dx, dy int, ok bool) {
	if !nativeCanMove {
		return 0, 0, false
	}
	scale := float32(1)
	if win := manager.overlayWindow(); win != nil {
		scale = canvasScale(win)
	}
	return int(math.Round(float64(offset.DX * scale))), int(math.Round(float64(offset.DY * scale))), true
}

func (manager *Manager) overlayWindow() fyne.Window {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for _, handle := range manager.handles {
		if handle.surface != nil && handle.surface == manager.options.Overlay {
			return handle.window()
		}
	}
	return nil
}

func (manager *Manager) currentOpacity() float64 {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.opacity
}

func (manager *Manager) create(title string, surface Surface, bounds window.Rect, onClosed func()) *Handle {
	handle := &Handle{
		manager:  manager,
		surface:  surface,
		onClosed: onClosed,
		bounds:   bounds,
		alive:    true,
	}
	if surface != nil {
		surface.Attach()
	}

	manager.mu.Lock()
	manager.handles = append(manager.handles, handle)
	manager.mu.Unlock()

	manager.do(func() {
		win := manager.newWindow(title)
		win.SetPadded(false)
		if surface != nil {
			win.SetContent(surface.Content())
		}
		win.SetOnClosed(handle.closedNatively)

		handle.mu.Lock()
		handle.win = win
		handle.mu.Unlock()
		handle.resize(win)
	})
	manager.logger.Debug("window created", "title", title, "bounds", bounds)
	return handle
}

func (manager *Manager) newWindow(title string) fyne.Window {
	if driver, ok := manager.app.Driver().(splashWindowDriver); ok {
		win := driver.CreateSplashWindow()
		win.SetTitle(title)
		return win
	}
	return manager.app.NewWindow(title)
}

func (manager *Manager) forget(handle *Handle) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for index, existing := range manager.handles {
		if existing == handle {
			manager.handles = append(manager.handles[:index], manager.handles[index+1:]...)
			return
		}
	}
}

// Handle is a shell window. State changes are recorded immediately and the
// fyne calls are queued on the UI thread in order.
type Handle struct {
	manager  *Manager
	surface  Surface
	onClosed func()

	mu      sync.Mutex
	win     fyne.Window
	bounds  window.Rect
	visible bool
	alive   bool
}

func (handle *Handle) Bounds() window.Rect {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.bounds
}

func (handle *Handle) SetBounds(bounds window.Rect) {
	handle.mu.Lock()
	if !handle.alive {
		handle.mu.Unlock()
		return
	}
	handle.bounds = bounds
	handle.mu.Unlock()

	handle.manager.do(func() {
		if win := handle.window(); win != nil {
			handle.resize(win)
		}
	})
}

func (handle *Handle) Show() {
	handle.mu.Lock()
	if !handle.alive {
		handle.mu.Unlock()
		return
	}
	handle.visible = true
	handle.mu.Unlock()

	handle.manager.do(func() {
		if win := handle.window(); win != nil {
			win.Show()
			handle.applyNativeLocked(win)
		}
	})
}

func (handle *Handle) Hide() {
	handle.mu.Lock()
	handle.visible = false
	handle.mu.Unlock()

	handle.manager.do(func() {
		if win := handle.window(); win != nil {
			win.Hide()
		}
	})
}

// Close destroys the window without running the native close callback.
func (handle *Handle) Close() {
	if !handle.markClosed() {
		return
	}
	handle.manager.do(func() {
		if win := handle.window(); win != nil {
			win.Close()
		}
	})
}

func (handle *Handle) Alive() bool {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.alive
}

func (handle *Handle) Visible() bool {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.alive && handle.visible
}

func (handle *Handle) closedNatively() {
	if !handle.markClosed() {
		return
	}
	if handle.onClosed != nil {
		handle.onClosed()
	}
}

func (handle *Handle) markClosed() bool {
	handle.mu.Lock()
	if !handle.alive {
		handle.mu.Unlock()
		return false
	}
	handle.alive = false
	handle.visible = false
	handle.mu.Unlock()

	if handle.surface != nil {
		handle.surface.Detach()
	}
	handle.manager.forget(handle)
	return true
}

func (handle *Handle) window() fyne.Window {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.win
}

// resize must run on the UI thread.
func (handle *Handle) resize(win fyne.Window) {
	bounds := handle.Bounds()
	scale := canvasScale(win)
	win.Resize(fyne.NewSize(float32(bounds.Width)/scale, float32(bounds.Height)/scale))
	handle.applyNativeLocked(win)
}

func (handle *Handle) applyNative() {
	handle.manager.do(func() {
		if win := handle.window(); win != nil {
			handle.applyNativeLocked(win)
		}
	})
}

// applyNativeLocked must run on the UI thread.
func (handle *Handle) applyNativeLocked(win fyne.Window) {
	placeNative(win, handle.Bounds(), handle.manager.currentOpacity())
}

func canvasScale(win fyne.Window) float32 {
	if !nativeUsesPixels {
		return 1
	}
	scale := win.Canvas().Scale()
	if scale <= 0 {
		return 1
	}
	return scale
}
