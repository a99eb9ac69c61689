package broadcast

import (
	"errors"
	"sync"
	"testing"
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/ipc"
)

type recordingSurface struct {
	mu       sync.Mutex
	alive    bool
	received []ipc.Message
	err      error
	panics   bool
}

func (surface *recordingSurface) Alive() bool {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	return surface.alive
}

func (surface *recordingSurface) Deliver(msg ipc.Message) error {
	if surface.panics {
		panic("render failed")
	}
	surface.mu.Lock()
	defer surface.mu.Unlock()
	surface.received = append(surface.received, msg)
	return surface.err
}

func (surface *recordingSurface) messages() []ipc.Message {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	return append([]ipc.Message(nil), surface.received...)
}

type manualTimers struct {
	mu    sync.Mutex
	funcs []func()
	delay time.Duration
}

func (timers *manualTimers) AfterFunc(delay time.Duration, fn func()) func() bool {
	timers.mu.Lock()
	defer timers.mu.Unlock()
	timers.delay = delay
	index := len(timers.funcs)
	timers.funcs = append(timers.funcs, fn)
	return func() bool {
		timers.mu.Lock()
		defer timers.mu.Unlock()
		active := timers.funcs[index] != nil
		timers.funcs[index] = nil
		return active
	}
}

// fire runs pending callbacks in the given order.
func (timers *manualTimers) fire(order ...int) {
	for _, index := range order {
		timers.mu.Lock()
		fn := timers.funcs[index]
		timers.funcs[index] = nil
		timers.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}

func TestPublishIsolatesFailingSurfaces(t *testing.T) {
	router := NewRouter(Options{})
	main := &recordingSurface{alive: true, err: errors.New("closed pipe")}
	overlay := &recordingSurface{alive: true, panics: true}
	panel := &recordingSurface{alive: true}
	dead := &recordingSurface{alive: false}
	router.Register("main", main)
	router.Register("overlay", overlay)
	router.Register("panel", panel)
	router.Register("dead", dead)

	router.Publish(ipc.TimerTick{Payload: model.TimerPayload{Mode: model.TimerCountdown, Remaining: 3}})

	if len(main.messages()) != 1 || len(panel.messages()) != 1 {
		t.Fatalf("healthy surfaces missed the tick")
	}
	if len(dead.messages()) != 0 {
		t.Fatalf("dead surface received a message")
	}
}

func TestSendSkipsUnknownSurface(t *testing.T) {
	router := NewRouter(Options{})
	overlay := &recordingSurface{alive: true}
	router.Register("overlay", overlay)

	router.Send("panel", ipc.OverlayMode{Mode: "dot"})
	router.Send("overlay", ipc.OverlayMode{Mode: "dot"})
	if got := overlay.messages(); len(got) != 1 || got[0] != (ipc.OverlayMode{Mode: "dot"}) {
		t.Fatalf("unexpected overlay messages %+v", got)
	}

	router.Unregister("overlay")
	router.Send("overlay", ipc.OverlayMode{Mode: "bar"})
	if len(overlay.messages()) != 1 {
		t.Fatalf("unregistered surface still receives messages")
	}
}

func TestPublishStateIsDelayedAndOrdered(t *testing.T) {
	timers := &manualTimers{}
	router := NewRouter(Options{AfterFunc: timers.AfterFunc})
	panel := &recordingSurface{alive: true}
	router.Register("panel", panel)

	first := model.Default()
	first.Notes = "first"
	second := model.Default()
	second.Notes = "second"
	router.PublishState(first, 1)
	router.PublishState(second, 2)

	if timers.delay != DefaultStateDelay {
		t.Fatalf("expected %v delay, got %v", DefaultStateDelay, timers.delay)
	}
	if len(panel.messages()) != 0 {
		t.Fatalf("state delivered before the delay")
	}

	timers.fire(1, 0)
	got := panel.messages()
	if len(got) != 1 {
		t.Fatalf("expected only the newest document, got %d messages", len(got))
	}
	update := got[0].(ipc.StoreUpdated)
	if update.State.Notes != "second" || update.Revision != 2 {
		t.Fatalf("unexpected update %+v", update)
	}
}

func TestCloseCancelsPendingState(t *testing.T) {
	timers := &manualTimers{}
	router := NewRouter(Options{AfterFunc: timers.AfterFunc})
	panel := &recordingSurface{alive: true}
	router.Register("panel", panel)

	router.PublishState(model.Default(), 1)
	router.Close()
	timers.fire(0)
	router.PublishState(model.Default(), 2)

	if len(panel.messages()) != 0 {
		t.Fatalf("closed router delivered state")
	}
}

func TestSurfaceFunc(t *testing.T) {
	router := NewRouter(Options{StateDelay: time.Millisecond})
	received := make(chan ipc.Message, 1)
	router.Register("main", SurfaceFunc(func(msg ipc.Message) error {
		received <- msg
		return nil
	}))
	router.PublishState(model.Default(), 3)

	select {
	case msg := <-received:
		if msg.Kind() != ipc.KindStoreUpdated {
			t.Fatalf("unexpected kind %s", msg.Kind())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("state was not delivered")
	}
}
