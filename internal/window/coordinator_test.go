package window

import (
	"errors"
	"sync"
	"testing"
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/ipc"
)

type fakeHandle struct {
	bounds  Rect
	visible bool
	closed  bool
}

func (handle *fakeHandle) Bounds() Rect          { return handle.bounds }
func (handle *fakeHandle) SetBounds(bounds Rect) { handle.bounds = bounds }
func (handle *fakeHandle) Show()                 { handle.visible = true }
func (handle *fakeHandle) Hide()                 { handle.visible = false }
func (handle *fakeHandle) Close()                { handle.closed = true; handle.visible = false }
func (handle *fakeHandle) Alive() bool           { return !handle.closed }
func (handle *fakeHandle) Visible() bool         { return handle.visible }

type fakeManager struct {
	workArea Rect
	overlays []*fakeHandle
	panels   []*fakeHandle
	fail     error
}

func (manager *fakeManager) CreateOverlay(bounds Rect) (Handle, error) {
	if manager.fail != nil {
		return nil, manager.fail
	}
	handle := &fakeHandle{bounds: bounds}
	manager.overlays = append(manager.overlays, handle)
	return handle, nil
}

func (manager *fakeManager) CreatePanel(bounds Rect) (Handle, error) {
	handle := &fakeHandle{bounds: bounds}
	manager.panels = append(manager.panels, handle)
	return handle, nil
}

func (manager *fakeManager) WorkArea() Rect { return manager.workArea }

type sentMessage struct {
	surface string
	msg     ipc.Message
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (messenger *fakeMessenger) Send(surface string, msg ipc.Message) {
	messenger.mu.Lock()
	messenger.sent = append(messenger.sent, sentMessage{surface: surface, msg: msg})
	messenger.mu.Unlock()
}

type fakeAnimator struct {
	enters int
	leaves int
}

func (animator *fakeAnimator) Enter() { animator.enters++ }
func (animator *fakeAnimator) Leave() { animator.leaves++ }

type pendingTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

type manualTimers struct {
	pending []*pendingTimer
}

func (timers *manualTimers) AfterFunc(delay time.Duration, fn func()) func() bool {
	timer := &pendingTimer{delay: delay, fn: fn}
	timers.pending = append(timers.pending, timer)
	return func() bool {
		wasActive := !timer.stopped
		timer.stopped = true
		return wasActive
	}
}

func (timers *manualTimers) fire() {
	pending := timers.pending
	timers.pending = nil
	for _, timer := range pending {
		if !timer.stopped {
			timer.stopped = true
			timer.fn()
		}
	}
}

type coordinatorFixture struct {
	coordinator *Coordinator
	manager     *fakeManager
	messenger   *fakeMessenger
	animator    *fakeAnimator
	timers      *manualTimers
}

func newFixture(t *testing.T) coordinatorFixture {
	t.Helper()
	fixture := coordinatorFixture{
		manager:   &fakeManager{workArea: Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		messenger: &fakeMessenger{},
		animator:  &fakeAnimator{},
		timers:    &manualTimers{},
	}
	fixture.coordinator = NewCoordinator(fixture.manager, Options{
		Messenger: fixture.messenger,
		Animator:  fixture.animator,
		AfterFunc: fixture.timers.AfterFunc,
	})
	return fixture
}

func TestShowOverlayCentresBar(t *testing.T) {
	fixture := newFixture(t)
	if err := fixture.coordinator.ShowOverlay(); err != nil {
		t.Fatalf("show overlay: %v", err)
	}
	if err := fixture.coordinator.ShowOverlay(); err != nil {
		t.Fatalf("second show overlay: %v", err)
	}
	if len(fixture.manager.overlays) != 1 {
		t.Fatalf("expected one overlay window, got %d", len(fixture.manager.overlays))
	}
	bounds, _ := fixture.coordinator.OverlayBounds()
	if bounds != (Rect{X: 750, Y: 10, Width: 420, Height: 64}) {
		t.Fatalf("unexpected overlay bounds %+v", bounds)
	}
	if !fixture.coordinator.OverlayVisible() {
		t.Fatalf("overlay should be visible")
	}
	if len(fixture.messenger.sent) == 0 || fixture.messenger.sent[0].msg != (ipc.OverlayMode{Mode: "bar"}) {
		t.Fatalf("overlay surface not told its mode: %+v", fixture.messenger.sent)
	}
}

func TestShowOverlayError(t *testing.T) {
	fixture := newFixture(t)
	boom := errors.New("no display")
	fixture.manager.fail = boom
	if err := fixture.coordinator.ShowOverlay(); !errors.Is(err, boom) {
		t.Fatalf("expected create error, got %v", err)
	}
	if fixture.coordinator.OverlayVisible() {
		t.Fatalf("overlay should not be visible")
	}
}

func TestModeTogglingKeepsPanelAnchored(t *testing.T) {
	fixture := newFixture(t)
	coordinator := fixture.coordinator
	_ = coordinator.ShowOverlay()
	if err := coordinator.TogglePanel(true); err != nil {
		t.Fatalf("open panel: %v", err)
	}

	modes := []Mode{ModeDot, ModeBar, ModeDot, ModeDot, ModeBar, ModeDot}
	for _, mode := range modes {
		coordinator.SetOverlayMode(mode)
		overlay, _ := coordinator.OverlayBounds()
		panel, _ := coordinator.PanelBounds()
		width, height := OverlaySize(mode)
		if overlay.Width != width || overlay.Height != height {
			t.Fatalf("mode %s: overlay %+v", mode, overlay)
		}
		if panel.X != overlay.X || panel.Y != overlay.Y+overlay.Height+6 || panel.Width != overlay.Width {
			t.Fatalf("mode %s: panel %+v not anchored to overlay %+v", mode, panel, overlay)
		}
	}
	if coordinator.Mode() != ModeDot {
		t.Fatalf("expected dot mode, got %s", coordinator.Mode())
	}
	if got := coordinator.SetOverlayMode("huge"); got != ModeBar {
		t.Fatalf("invalid mode should fall back to bar, got %s", got)
	}
}

func TestTogglePanelReusesWindow(t *testing.T) {
	fixture := newFixture(t)
	coordinator := fixture.coordinator

	if err := coordinator.TogglePanel(true); err != nil || len(fixture.manager.panels) != 0 {
		t.Fatalf("panel must not open without overlay")
	}
	_ = coordinator.ShowOverlay()
	_ = coordinator.TogglePanel(true)
	panel := fixture.manager.panels[0]
	if panel.bounds.Height != 520 || !panel.visible {
		t.Fatalf("unexpected new panel %+v", panel)
	}

	_ = coordinator.TogglePanel(false)
	if coordinator.PanelVisible() {
		t.Fatalf("panel should report closed right away")
	}
	if !panel.visible {
		t.Fatalf("panel should stay shown during the leave transition")
	}
	if len(fixture.timers.pending) != 1 || fixture.timers.pending[0].delay != PanelLeaveDelay {
		t.Fatalf("expected a %v leave timer", PanelLeaveDelay)
	}
	fixture.timers.fire()
	if panel.visible || panel.closed {
		t.Fatalf("panel should be hidden, not destroyed: %+v", panel)
	}

	_ = coordinator.TogglePanel(true)
	if len(fixture.manager.panels) != 1 || !panel.visible {
		t.Fatalf("panel window should be reused")
	}
	if fixture.animator.enters != 2 || fixture.animator.leaves != 1 {
		t.Fatalf("unexpected transitions enter=%d leave=%d", fixture.animator.enters, fixture.animator.leaves)
	}
}

func TestReopenDuringLeaveCancelsHide(t *testing.T) {
	fixture := newFixture(t)
	coordinator := fixture.coordinator
	_ = coordinator.ShowOverlay()
	_ = coordinator.TogglePanel(true)
	_ = coordinator.TogglePanel(false)
	_ = coordinator.TogglePanel(true)
	fixture.timers.fire()

	if !fixture.manager.panels[0].visible || !coordinator.PanelVisible() {
		t.Fatalf("reopened panel was hidden by a stale transition")
	}
}

func TestHideOverlayDestroysPanelAndCancelsTransition(t *testing.T) {
	fixture := newFixture(t)
	coordinator := fixture.coordinator
	_ = coordinator.ShowOverlay()
	_ = coordinator.TogglePanel(true)
	_ = coordinator.TogglePanel(false)

	coordinator.HideOverlay()
	if !fixture.manager.panels[0].closed || !fixture.manager.overlays[0].closed {
		t.Fatalf("overlay and panel should be destroyed")
	}
	if len(fixture.timers.pending) != 1 || !fixture.timers.pending[0].stopped {
		t.Fatalf("pending transition should be cancelled")
	}
	if coordinator.OverlayVisible() || coordinator.PanelVisible() {
		t.Fatalf("nothing should be visible")
	}
}

func TestOverlayMovesCarryPanel(t *testing.T) {
	fixture := newFixture(t)
	coordinator := fixture.coordinator
	_ = coordinator.ShowOverlay()
	_ = coordinator.TogglePanel(true)

	coordinator.OverlayWillMove(Rect{X: 100, Y: 200, Width: 420, Height: 64})
	panel, _ := coordinator.PanelBounds()
	if panel != (Rect{X: 100, Y: 270, Width: 420, Height: 520}) {
		t.Fatalf("unexpected panel after move %+v", panel)
	}
}

func TestMoveOverlayByDragsPanelAlong(t *testing.T) {
	fixture := newFixture(t)
	coordinator := fixture.coordinator
	coordinator.MoveOverlayBy(10, 10, true)
	if len(fixture.manager.overlays) != 0 {
		t.Fatal("move without an overlay created one")
	}

	_ = coordinator.ShowOverlay()
	_ = coordinator.TogglePanel(true)
	start, _ := coordinator.OverlayBounds()

	coordinator.MoveOverlayBy(30, -12, false)
	coordinator.MoveOverlayBy(5, 2, true)
	moved, _ := coordinator.OverlayBounds()
	want := Rect{X: start.X + 35, Y: start.Y - 10, Width: start.Width, Height: start.Height}
	if moved != want {
		t.Fatalf("overlay = %+v, want %+v", moved, want)
	}
	panel, _ := coordinator.PanelBounds()
	if panel != PositionPanel(want, panel.Height) {
		t.Fatalf("panel %+v not anchored below %+v", panel, want)
	}
}

func TestRequestPanelHeightClamps(t *testing.T) {
	fixture := newFixture(t)
	coordinator := fixture.coordinator
	_ = coordinator.ShowOverlay()
	_ = coordinator.TogglePanel(true)

	coordinator.RequestPanelHeight(50)
	if panel, _ := coordinator.PanelBounds(); panel.Height != 120 {
		t.Fatalf("expected min height, got %d", panel.Height)
	}
	coordinator.RequestPanelHeight(5000)
	if panel, _ := coordinator.PanelBounds(); panel.Height != 820 {
		t.Fatalf("expected max height, got %d", panel.Height)
	}
	coordinator.RequestPanelHeight(0)
	if panel, _ := coordinator.PanelBounds(); panel.Height != 820 {
		t.Fatalf("zero request should keep height, got %d", panel.Height)
	}
}

func TestObservePayloadAutoShowsOnlyFromIdle(t *testing.T) {
	fixture := newFixture(t)
	coordinator := fixture.coordinator

	coordinator.ObservePayload(model.TimerPayload{Mode: model.TimerIdle})
	if coordinator.OverlayVisible() {
		t.Fatalf("idle payload must not show the overlay")
	}
	coordinator.ObservePayload(model.TimerPayload{Mode: model.TimerCountdown, Remaining: 60})
	if !coordinator.OverlayVisible() {
		t.Fatalf("idle to active should show the overlay")
	}

	coordinator.HideOverlay()
	coordinator.ObservePayload(model.TimerPayload{Mode: model.TimerCountdown, Remaining: 59})
	if coordinator.OverlayVisible() {
		t.Fatalf("ticks while active must not re-show a hidden overlay")
	}
	coordinator.ObservePayload(model.TimerPayload{Mode: model.TimerIdle})
	coordinator.ObservePayload(model.TimerPayload{Mode: model.TimerStopwatch, Elapsed: 1})
	if !coordinator.OverlayVisible() {
		t.Fatalf("stopwatch start from idle should show the overlay")
	}
}
