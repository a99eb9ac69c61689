// Package broadcast fans messages out to the live application surfaces.
package broadcast

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/ipc"
	"focusflow/internal/logging"
)

// DefaultStateDelay gives freshly created surfaces time to attach before a
// store broadcast reaches them.
const DefaultStateDelay = 50 * time.Millisecond

// Surface is a window that can receive messages.
type Surface interface {
	Alive() bool
	Deliver(msg ipc.Message) error
}

// SurfaceFunc adapts a function to a Surface that is always alive.
type SurfaceFunc func(msg ipc.Message) error

func (fn SurfaceFunc) Alive() bool                   { return true }
func (fn SurfaceFunc) Deliver(msg ipc.Message) error { return fn(msg) }

// Options configures a Router.
type Options struct {
	StateDelay time.Duration
	Logger     *slog.Logger
	AfterFunc  func(d time.Duration, f func()) (stop func() bool)
}

// Router delivers messages to registered surfaces. A failing surface never
// stops delivery to the others.
type Router struct {
	delay     time.Duration
	logger    *slog.Logger
	afterFunc func(time.Duration, func()) func() bool

	mu       sync.Mutex
	names    []string
	surfaces map[string]Surface

	stateMu   sync.Mutex
	pending   map[int]func() bool
	nextTimer int
	delivered uint64
	closed    bool
}

// NewRouter returns an empty router.
func NewRouter(options Options) *Router {
	router := &Router{
		delay:     options.StateDelay,
		logger:    options.Logger,
		afterFunc: options.AfterFunc,
		surfaces:  make(map[string]Surface),
		pending:   make(map[int]func() bool),
	}
	if router.delay <= 0 {
		router.delay = DefaultStateDelay
	}
	if router.logger == nil {
		router.logger = logging.Nop()
	}
	if router.afterFunc == nil {
		router.afterFunc = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	return router
}

// Register adds or replaces the surface called name.
func (router *Router) Register(name string, surface Surface) {
	router.mu.Lock()
	defer router.mu.Unlock()
	if _, exists := router.surfaces[name]; !exists {
		router.names = append(router.names, name)
	}
	router.surfaces[name] = surface
}

// Unregister removes the surface called name.
func (router *Router) Unregister(name string) {
	router.mu.Lock()
	defer router.mu.Unlock()
	if _, exists := router.surfaces[name]; !exists {
		return
	}
	delete(router.surfaces, name)
	for index, existing := range router.names {
		if existing == name {
			router.names = append(router.names[:index:index], router.names[index+1:]...)
			break
		}
	}
}

// Publish delivers msg to every live surface right away.
func (router *Router) Publish(msg ipc.Message) {
	router.mu.Lock()
	names := append([]string(nil), router.names...)
	surfaces := make([]Surface, len(names))
	for index, name := range names {
		surfaces[index] = router.surfaces[name]
	}
	router.mu.Unlock()

	for index, surface := range surfaces {
		router.deliver(names[index], surface, msg)
	}
}

// Send delivers msg to one surface. Missing or dead surfaces are skipped.
func (router *Router) Send(name string, msg ipc.Message) {
	router.mu.Lock()
	surface, ok := router.surfaces[name]
	router.mu.Unlock()
	if !ok {
		return
	}
	router.deliver(name, surface, msg)
}

// PublishState broadcasts a persisted document after the state delay. A
// document older than one already delivered is dropped. Its signature
// matches storage.Observer.
func (router *Router) PublishState(doc model.AppState, revision uint64) {
	router.stateMu.Lock()
	defer router.stateMu.Unlock()
	if router.closed {
		return
	}

	id := router.nextTimer
	router.nextTimer++
	router.pending[id] = router.afterFunc(router.delay, func() {
		router.stateMu.Lock()
		delete(router.pending, id)
		if router.closed || (revision != 0 && revision <= router.delivered) {
			router.stateMu.Unlock()
			return
		}
		if revision != 0 {
			router.delivered = revision
		}
		router.stateMu.Unlock()

		router.Publish(ipc.StoreUpdated{State: doc, Revision: revision})
	})
}

// Close cancels pending state broadcasts.
func (router *Router) Close() {
	router.stateMu.Lock()
	defer router.stateMu.Unlock()
	router.closed = true
	for id, stop := range router.pending {
		stop()
		delete(router.pending, id)
	}
}

func (router *Router) deliver(name string, surface Surface, msg ipc.Message) {
	defer func() {
		if recovered := recover(); recovered != nil {
			router.logger.Error("surface panicked", "surface", name, "kind", msg.Kind(), "panic", fmt.Sprint(recovered))
		}
	}()
	if surface == nil || !surface.Alive() {
		return
	}
	if err := surface.Deliver(msg); err != nil {
		router.logger.Warn("deliver to surface failed", "surface", name, "kind", msg.Kind(), "error", err)
	}
}
