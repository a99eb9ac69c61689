// Package animation plays the short enter and leave transitions of the
// timer panel.
package animation

import (
	"context"
	"sync"
	"time"
)

// Player runs one transition at a time. Starting a transition cancels the
// one in flight.
type Player struct {
	mu       sync.Mutex
	config   Config
	apply    func(value float64)
	onFinish func(Transition)
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a player that reports every frame value to apply. apply runs
// on the player goroutine.
func New(config Config, apply func(value float64)) *Player {
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultConfig().FrameInterval
	}
	return &Player{config: config, apply: apply}
}

// SetOnFinish sets a callback fired when a transition runs to completion.
func (player *Player) SetOnFinish(handler func(Transition)) {
	player.mu.Lock()
	defer player.mu.Unlock()
	player.onFinish = handler
}

// Enter plays the enter transition.
func (player *Player) Enter() {
	player.Play(context.Background(), player.config.Enter)
}

// Leave plays the leave transition.
func (player *Player) Leave() {
	player.Play(context.Background(), player.config.Leave)
}

// Play starts transition, replacing any running one.
func (player *Player) Play(ctx context.Context, transition Transition) {
	player.start(ctx, func(runCtx context.Context) {
		if player.run(runCtx, transition) {
			player.notifyFinish(transition)
		}
	})
}

// Stop cancels the running transition, leaving the last applied value.
func (player *Player) Stop() {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.cancel != nil {
		player.cancel()
		player.cancel = nil
	}
}

// Wait blocks until the current transition ends or is cancelled.
func (player *Player) Wait() {
	player.mu.Lock()
	done := player.done
	player.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (player *Player) start(parent context.Context, run func(context.Context)) {
	player.mu.Lock()
	if player.cancel != nil {
		player.cancel()
	}
	runCtx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	player.cancel = cancel
	player.done = done
	player.mu.Unlock()

	go func() {
		defer close(done)
		run(runCtx)
	}()
}

func (player *Player) run(ctx context.Context, transition Transition) bool {
	if transition.Duration <= 0 {
		player.emit(ctx, transition.To)
		return ctx.Err() == nil
	}

	frames := int(transition.Duration / player.config.FrameInterval)
	if frames < 1 {
		frames = 1
	}
	player.emit(ctx, transition.Value(0))
	for frame := 1; frame <= frames; frame++ {
		if !sleepWithContext(ctx, player.config.FrameInterval) {
			return false
		}
		player.emit(ctx, transition.Value(float64(frame)/float64(frames)))
	}
	return true
}

func (player *Player) emit(ctx context.Context, value float64) {
	if ctx.Err() != nil || player.apply == nil {
		return
	}
	player.apply(value)
}

func (player *Player) notifyFinish(transition Transition) {
	player.mu.Lock()
	handler := player.onFinish
	player.mu.Unlock()
	if handler != nil {
		handler(transition)
	}
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
