package window

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/ipc"
	"focusflow/internal/logging"
)

// Surface names used when addressing messages.
const (
	SurfaceMain    = "main"
	SurfaceOverlay = "overlay"
	SurfacePanel   = "panel"
)

// Handle is a native window created by a Manager.
type Handle interface {
	Bounds() Rect
	SetBounds(bounds Rect)
	// Show reveals the window without taking focus.
	Show()
	Hide()
	// Close destroys the window.
	Close()
	Alive() bool
	Visible() bool
}

// Manager creates the overlay and panel windows.
type Manager interface {
	CreateOverlay(bounds Rect) (Handle, error)
	CreatePanel(bounds Rect) (Handle, error)
	WorkArea() Rect
}

// Messenger delivers a message to a named surface.
type Messenger interface {
	Send(surface string, msg ipc.Message)
}

// Animator plays the panel enter and leave transitions.
type Animator interface {
	Enter()
	Leave()
}

// Options configures a Coordinator.
type Options struct {
	Mode      Mode
	Messenger Messenger
	Animator  Animator
	Logger    *slog.Logger
	// AfterFunc schedules f after d and returns a stop function.
	AfterFunc func(d time.Duration, f func()) (stop func() bool)
}

// Coordinator keeps the overlay and the panel in sync with each other and
// with the timer.
type Coordinator struct {
	manager   Manager
	messenger Messenger
	animator  Animator
	logger    *slog.Logger
	afterFunc func(time.Duration, func()) func() bool

	mu          sync.Mutex
	overlay     Handle
	panel       Handle
	mode        Mode
	panelOpen   bool
	cancelLeave func() bool
	lastTimer   model.TimerMode
}

// NewCoordinator returns a coordinator with no windows.
func NewCoordinator(manager Manager, options Options) *Coordinator {
	coordinator := &Coordinator{
		manager:   manager,
		messenger: options.Messenger,
		animator:  options.Animator,
		logger:    options.Logger,
		afterFunc: options.AfterFunc,
		mode:      ModeBar,
		lastTimer: model.TimerIdle,
	}
	if options.Mode.Valid() {
		coordinator.mode = options.Mode
	}
	if coordinator.logger == nil {
		coordinator.logger = logging.Nop()
	}
	if coordinator.afterFunc == nil {
		coordinator.afterFunc = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	return coordinator
}

// SetAnimator installs the panel transition player.
func (coordinator *Coordinator) SetAnimator(animator Animator) {
	coordinator.mu.Lock()
	coordinator.animator = animator
	coordinator.mu.Unlock()
}

// ShowOverlay creates the overlay, or reveals the existing one.
func (coordinator *Coordinator) ShowOverlay() error {
	coordinator.mu.Lock()
	if alive(coordinator.overlay) {
		coordinator.overlay.Show()
		coordinator.positionPanelLocked(nil)
		coordinator.mu.Unlock()
		return nil
	}

	bounds := PositionOverlay(coordinator.manager.WorkArea(), coordinator.mode)
	overlay, err := coordinator.manager.CreateOverlay(bounds)
	if err != nil {
		coordinator.mu.Unlock()
		return fmt.Errorf("create overlay: %w", err)
	}
	coordinator.overlay = overlay
	overlay.SetBounds(bounds)
	overlay.Show()
	mode := coordinator.mode
	coordinator.mu.Unlock()

	coordinator.send(SurfaceOverlay, ipc.OverlayMode{Mode: string(mode)})
	coordinator.logger.Debug("overlay shown", "mode", mode)
	return nil
}

// HideOverlay destroys the overlay and the panel and cancels a pending
// panel transition.
func (coordinator *Coordinator) HideOverlay() {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	coordinator.stopLeaveLocked()
	if alive(coordinator.panel) {
		coordinator.panel.Close()
	}
	if alive(coordinator.overlay) {
		coordinator.overlay.Close()
	}
	coordinator.panel = nil
	coordinator.overlay = nil
	coordinator.panelOpen = false
}

// OverlayClosed drops references after the overlay was closed natively.
func (coordinator *Coordinator) OverlayClosed() {
	coordinator.HideOverlay()
}

// SetOverlayMode switches the layout. Anything but dot means bar.
func (coordinator *Coordinator) SetOverlayMode(mode Mode) Mode {
	if !mode.Valid() {
		mode = ModeBar
	}
	coordinator.mu.Lock()
	coordinator.mode = mode
	visible := alive(coordinator.overlay)
	if visible {
		bounds := PositionOverlay(coordinator.manager.WorkArea(), mode)
		coordinator.overlay.SetBounds(bounds)
		coordinator.positionPanelLocked(&bounds)
	}
	coordinator.mu.Unlock()

	if visible {
		coordinator.send(SurfaceOverlay, ipc.OverlayMode{Mode: string(mode)})
	}
	return mode
}

// TogglePanel opens the panel anchored below the overlay, or plays the leave
// transition and hides it. The panel window is reused across toggles. It is
// a no-op without an overlay.
func (coordinator *Coordinator) TogglePanel(open bool) error {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	if !alive(coordinator.overlay) {
		return nil
	}
	if open {
		return coordinator.openPanelLocked()
	}
	coordinator.closePanelLocked()
	return nil
}

func (coordinator *Coordinator) openPanelLocked() error {
	coordinator.stopLeaveLocked()
	coordinator.panelOpen = true

	if alive(coordinator.panel) {
		coordinator.positionPanelLocked(nil)
		coordinator.panel.Show()
		if coordinator.animator != nil {
			coordinator.animator.Enter()
		}
		return nil
	}

	bounds := PositionPanel(coordinator.overlay.Bounds(), panelInitialHeight)
	panel, err := coordinator.manager.CreatePanel(bounds)
	if err != nil {
		coordinator.panelOpen = false
		return fmt.Errorf("create panel: %w", err)
	}
	coordinator.panel = panel
	panel.SetBounds(bounds)
	panel.Show()
	if coordinator.animator != nil {
		coordinator.animator.Enter()
	}
	return nil
}

func (coordinator *Coordinator) closePanelLocked() {
	coordinator.panelOpen = false
	if !alive(coordinator.panel) {
		return
	}
	if coordinator.animator != nil {
		coordinator.animator.Leave()
	}

	coordinator.stopLeaveLocked()
	panel := coordinator.panel
	coordinator.cancelLeave = coordinator.afterFunc(PanelLeaveDelay, func() {
		coordinator.mu.Lock()
		defer coordinator.mu.Unlock()
		if coordinator.panel != panel || coordinator.panelOpen {
			return
		}
		coordinator.cancelLeave = nil
		if alive(panel) {
			panel.Hide()
		}
	})
}

func (coordinator *Coordinator) stopLeaveLocked() {
	if coordinator.cancelLeave != nil {
		coordinator.cancelLeave()
		coordinator.cancelLeave = nil
	}
}

// MoveOverlayBy shifts the overlay by dx, dy and carries the panel with it.
// done marks the end of a drag. It is a no-op without an overlay.
func (coordinator *Coordinator) MoveOverlayBy(dx, dy int, done bool) {
	coordinator.mu.Lock()
	if !alive(coordinator.overlay) {
		coordinator.mu.Unlock()
		return
	}
	bounds := coordinator.overlay.Bounds()
	bounds.X += dx
	bounds.Y += dy
	coordinator.overlay.SetBounds(bounds)
	coordinator.mu.Unlock()

	if done {
		coordinator.OverlayMoved(bounds)
		coordinator.logger.Debug("overlay moved", "bounds", bounds)
		return
	}
	coordinator.OverlayWillMove(bounds)
}

// OverlayMoved re-anchors the panel after the overlay moved or resized.
func (coordinator *Coordinator) OverlayMoved(bounds Rect) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	coordinator.positionPanelLocked(&bounds)
}

// OverlayWillMove re-anchors the panel ahead of a move so both windows move together.
func (coordinator *Coordinator) OverlayWillMove(bounds Rect) {
	coordinator.OverlayMoved(bounds)
}

func (coordinator *Coordinator) positionPanelLocked(overlayBounds *Rect) {
	if !alive(coordinator.overlay) || !alive(coordinator.panel) {
		return
	}
	anchor := coordinator.overlay.Bounds()
	if overlayBounds != nil {
		anchor = *overlayBounds
	}
	coordinator.panel.SetBounds(PositionPanel(anchor, coordinator.panel.Bounds().Height))
}

// RequestPanelHeight resizes the panel to fit its content within the work area.
// A non-positive height keeps the current one.
func (coordinator *Coordinator) RequestPanelHeight(height int) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	if !alive(coordinator.panel) {
		return
	}
	anchor := coordinator.panel.Bounds()
	if alive(coordinator.overlay) {
		anchor = coordinator.overlay.Bounds()
	}
	if height <= 0 {
		height = coordinator.panel.Bounds().Height
		if height <= 0 {
			height = panelFallbackAsk
		}
	}
	clamped := ClampPanelHeight(anchor, coordinator.manager.WorkArea(), height)
	coordinator.panel.SetBounds(PositionPanel(anchor, clamped))
}

// ObservePayload watches timer payloads and shows the overlay when a timer
// starts from idle. No other timer change moves windows.
func (coordinator *Coordinator) ObservePayload(payload model.TimerPayload) {
	coordinator.mu.Lock()
	previous := coordinator.lastTimer
	coordinator.lastTimer = payload.Mode
	coordinator.mu.Unlock()

	if previous == model.TimerIdle && payload.Mode.Active() {
		if err := coordinator.ShowOverlay(); err != nil {
			coordinator.logger.Warn("auto-show overlay failed", "error", err)
		}
	}
}

// OverlayVisible reports whether the overlay exists and is shown.
func (coordinator *Coordinator) OverlayVisible() bool {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return alive(coordinator.overlay) && coordinator.overlay.Visible()
}

// PanelVisible reports whether the panel is open.
func (coordinator *Coordinator) PanelVisible() bool {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.panelOpen && alive(coordinator.panel)
}

// Mode returns the current overlay layout.
func (coordinator *Coordinator) Mode() Mode {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.mode
}

// OverlayBounds returns the overlay rectangle, if any.
func (coordinator *Coordinator) OverlayBounds() (Rect, bool) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	if !alive(coordinator.overlay) {
		return Rect{}, false
	}
	return coordinator.overlay.Bounds(), true
}

// PanelBounds returns the panel rectangle, if any.
func (coordinator *Coordinator) PanelBounds() (Rect, bool) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	if !alive(coordinator.panel) {
		return Rect{}, false
	}
	return coordinator.panel.Bounds(), true
}

func (coordinator *Coordinator) send(surface string, msg ipc.Message) {
	if coordinator.messenger == nil {
		return
	}
	coordinator.messenger.Send(surface, msg)
}

func alive(handle Handle) bool {
	return handle != nil && handle.Alive()
}
