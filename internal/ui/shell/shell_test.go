package shell

import (
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/window"
)

type fakeSurface struct {
	mu       sync.Mutex
	content  fyne.CanvasObject
	attached bool
	attaches int
}

func newFakeSurface(text string) *fakeSurface {
	return &fakeSurface{content: widget.NewLabel(text)}
}

func (surface *fakeSurface) Content() fyne.CanvasObject { return surface.content }

func (surface *fakeSurface) Attach() {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	surface.attached = true
	surface.attaches++
}

func (surface *fakeSurface) Detach() {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	surface.attached = false
}

func (surface *fakeSurface) isAttached() bool {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	return surface.attached
}

func newManager(t *testing.T, onClosed func()) (*Manager, *fakeSurface, *fakeSurface) {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)

	overlay := newFakeSurface("overlay")
	panel := newFakeSurface("panel")
	manager := New(app, Options{
		Overlay:         overlay,
		Panel:           panel,
		OnOverlayClosed: onClosed,
		WorkArea:        window.Rect{Width: 1440, Height: 900},
		Do:              func(f func()) { f() },
	})
	return manager, overlay, panel
}

func TestCreateShowClose(t *testing.T) {
	closed := 0
	manager, overlay, _ := newManager(t, func() { closed++ })

	bounds := window.PositionOverlay(manager.WorkArea(), window.ModeBar)
	handle, err := manager.CreateOverlay(bounds)
	if err != nil {
		t.Fatalf("create overlay: %v", err)
	}
	if !handle.Alive() || handle.Visible() {
		t.Fatalf("new handle alive=%t visible=%t", handle.Alive(), handle.Visible())
	}
	if !overlay.isAttached() {
		t.Fatal("overlay surface should be attached")
	}
	if handle.Bounds() != bounds {
		t.Fatalf("bounds = %+v, want %+v", handle.Bounds(), bounds)
	}

	handle.Show()
	if !handle.Visible() {
		t.Fatal("shown handle should be visible")
	}
	handle.Hide()
	if handle.Visible() {
		t.Fatal("hidden handle should not be visible")
	}

	handle.Close()
	if handle.Alive() || overlay.isAttached() {
		t.Fatal("closed handle should be dead and detached")
	}
	if closed != 0 {
		t.Fatalf("programmatic close ran the native close callback %d times", closed)
	}

	handle.SetBounds(window.Rect{Width: 10, Height: 10})
	if handle.Bounds() != bounds {
		t.Fatal("dead handle should ignore SetBounds")
	}
}

func TestNativeCloseNotifies(t *testing.T) {
	closed := 0
	manager, overlay, _ := newManager(t, func() { closed++ })

	created, _ := manager.CreateOverlay(window.Rect{Width: 420, Height: 64})
	handle := created.(*Handle)
	handle.window().Close()

	if closed != 1 {
		t.Fatalf("native close callbacks = %d", closed)
	}
	if handle.Alive() || overlay.isAttached() {
		t.Fatal("natively closed handle should be dead and detached")
	}
}

func TestWorkAreaFallback(t *testing.T) {
	manager, _, _ := newManager(t, nil)
	if nativeUsesPixels {
		t.Skip("work area comes from the platform")
	}
	if got := manager.WorkArea(); got != (window.Rect{Width: 1440, Height: 900}) {
		t.Fatalf("work area = %+v", got)
	}
}

func TestCoordinatorOverShell(t *testing.T) {
	var coordinator *window.Coordinator
	manager, overlay, panel := newManager(t, func() { coordinator.OverlayClosed() })
	coordinator = window.NewCoordinator(manager, window.Options{
		AfterFunc: func(_ time.Duration, f func()) func() bool {
			f()
			return func() bool { return true }
		},
	})

	if err := coordinator.ShowOverlay(); err != nil {
		t.Fatalf("show overlay: %v", err)
	}
	if err := coordinator.TogglePanel(true); err != nil {
		t.Fatalf("open panel: %v", err)
	}
	if !coordinator.OverlayVisible() || !coordinator.PanelVisible() || !panel.isAttached() {
		t.Fatal("overlay and panel should be visible")
	}

	overlayBounds, _ := coordinator.OverlayBounds()
	panelBounds, _ := coordinator.PanelBounds()
	if panelBounds.X != overlayBounds.X || panelBounds.Width != overlayBounds.Width {
		t.Fatalf("panel %+v not anchored to overlay %+v", panelBounds, overlayBounds)
	}

	coordinator.HideOverlay()
	if overlay.isAttached() || panel.isAttached() {
		t.Fatal("hiding the overlay should close both windows")
	}
	if overlay.attaches != 1 {
		t.Fatalf("overlay attached %d times", overlay.attaches)
	}
}

func TestDragDelta(t *testing.T) {
	manager, _, _ := newManager(t, nil)
	dx, dy, ok := manager.DragDelta(fyne.NewDelta(30.4, -12.6))
	if !nativeCanMove {
		if ok {
			t.Fatal("drag reported movable where windows cannot be placed")
		}
		return
	}
	if !ok || dx != 30 || dy != -13 {
		t.Fatalf("delta = %d, %d, %v", dx, dy, ok)
	}
}
