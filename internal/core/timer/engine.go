package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/logging"
)

var mmssPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Store is the document the engine records sessions and banked time in.
type Store interface {
	Update(ctx context.Context, mutate func(doc *model.AppState) error) (model.AppState, error)
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemTicker struct {
	ticker *time.Ticker
}

func (ticker systemTicker) C() <-chan time.Time { return ticker.ticker.C }
func (ticker systemTicker) Stop()               { ticker.ticker.Stop() }

// Options contains runtime options for Engine.
type Options struct {
	TickInterval time.Duration
	Now          func() time.Time
	NewTicker    func(interval time.Duration) Ticker
	Logger       *slog.Logger
}

// Engine owns the single timer state, its tick loop and the effects of
// every transition.
type Engine struct {
	mu            sync.Mutex
	config        model.TimerConfig
	options       Options
	store         Store
	logger        *slog.Logger
	state         State
	pending       *Completion
	generation    uint64
	stopCh        chan struct{}
	idleChecker   IdleChecker
	lastIdleCheck time.Time
	events        []chan Event
	closed        bool
}

// New creates an idle engine. store may be nil, in which case nothing is
// persisted.
func New(config model.TimerConfig, store Store, options Options) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewTicker == nil {
		options.NewTicker = func(interval time.Duration) Ticker {
			return systemTicker{ticker: time.NewTicker(interval)}
		}
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	config = withConfigDefaults(config)

	return &Engine{
		config:  config,
		options: options,
		store:   store,
		logger:  logger,
		state:   Idle{Preset: presetSeconds(config)},
	}
}

func withConfigDefaults(config model.TimerConfig) model.TimerConfig {
	defaults := model.DefaultTimerConfig()
	if config.DefaultCountdown <= 0 {
		config.DefaultCountdown = defaults.DefaultCountdown
	}
	if config.CountdownLabel == "" {
		config.CountdownLabel = defaults.CountdownLabel
	}
	if config.StopwatchLabel == "" {
		config.StopwatchLabel = defaults.StopwatchLabel
	}
	if config.Idle.CheckInterval <= 0 {
		config.Idle.CheckInterval = defaults.Idle.CheckInterval
	}
	if config.Idle.After <= 0 {
		config.Idle.After = defaults.Idle.After
	}
	return config
}

func presetSeconds(config model.TimerConfig) int {
	return int(config.DefaultCountdown / time.Second)
}

// SetIdleChecker injects an idle checker.
func (engine *Engine) SetIdleChecker(checker IdleChecker) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.idleChecker = checker
}

// UpdateConfig replaces the runtime configuration. An idle timer picks up the
// new preset.
func (engine *Engine) UpdateConfig(config model.TimerConfig) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.config = withConfigDefaults(config)
	if _, ok := engine.state.(Idle); ok {
		engine.state = Idle{Preset: presetSeconds(engine.config)}
		engine.emitPayloadLocked(engine.options.Now())
	}
}

// Subscribe registers a new observer channel.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	engine.mu.Lock()
	if engine.closed {
		close(ch)
	} else {
		engine.events = append(engine.events, ch)
	}
	engine.mu.Unlock()
	return ch
}

// State returns the current state.
func (engine *Engine) State() State {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.state
}

// Pending returns the last completed countdown that has not been banked.
func (engine *Engine) Pending() (Completion, bool) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.pending == nil {
		return Completion{}, false
	}
	return *engine.pending, true
}

// Payload returns the live view of the current state.
func (engine *Engine) Payload() model.TimerPayload {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return Payload(engine.state, engine.config)
}

// StartCountdown starts a countdown of durationSec linked to taskID, or
// resumes a paused one. Zero uses the preset.
func (engine *Engine) StartCountdown(ctx context.Context, durationSec int, taskID string) error {
	return engine.apply(ctx, StartCountdown{DurationSec: durationSec, TaskID: taskID})
}

// PauseResumeCountdown toggles the countdown.
func (engine *Engine) PauseResumeCountdown(ctx context.Context) error {
	return engine.apply(ctx, PauseResumeCountdown{})
}

// ResetCountdown stops the countdown and rewinds it, paused.
func (engine *Engine) ResetCountdown(ctx context.Context) error {
	return engine.apply(ctx, ResetCountdown{Preset: engine.preset()})
}

// StartStopwatch starts a stopwatch linked to taskID, or resumes a paused one.
func (engine *Engine) StartStopwatch(ctx context.Context, taskID string) error {
	return engine.apply(ctx, StartStopwatch{TaskID: taskID})
}

// PauseResumeStopwatch toggles the stopwatch.
func (engine *Engine) PauseResumeStopwatch(ctx context.Context) error {
	return engine.apply(ctx, PauseResumeStopwatch{})
}

// ResetStopwatch stops the stopwatch and clears it.
func (engine *Engine) ResetStopwatch(ctx context.Context) error {
	return engine.apply(ctx, ResetStopwatch{})
}

// SetCountdownDuration applies an inline edit of the countdown length.
func (engine *Engine) SetCountdownDuration(ctx context.Context, seconds int) error {
	return engine.apply(ctx, SetDuration{Seconds: seconds})
}

// ConfirmCurrent banks what the current timer measured and returns to idle.
func (engine *Engine) ConfirmCurrent(ctx context.Context) error {
	return engine.apply(ctx, Confirm{Preset: engine.preset()})
}

// BankCompleted adds the last completed countdown to the time pool. It works
// in any state, so a timer started while the completion dialog was open does
// not lose the completion.
func (engine *Engine) BankCompleted(ctx context.Context) error {
	return engine.apply(ctx, BankPending{})
}

// HandleCommand runs a command relayed from the overlay or the panel.
func (engine *Engine) HandleCommand(ctx context.Context, command model.Command) error {
	if !command.Valid() {
		return fmt.Errorf("handle command %q: %w", command, model.ErrUnknownCommand)
	}
	return engine.apply(ctx, RunCommand{Command: command, Preset: engine.preset()})
}

// Stop terminates the tick loop and closes observers.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return
	}
	engine.closed = true
	engine.stopLoopLocked()
	events := engine.events
	engine.events = nil
	engine.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (engine *Engine) preset() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return presetSeconds(engine.config)
}

func (engine *Engine) apply(ctx context.Context, input Input) error {
	engine.mu.Lock()
	writes, err := engine.applyLocked(input, engine.options.Now())
	engine.mu.Unlock()
	if err != nil {
		return err
	}
	return engine.persist(ctx, writes)
}

// applyLocked runs a transition and every effect that does not touch the
// store. Store effects are returned for execution after the lock is released.
func (engine *Engine) applyLocked(input Input, now time.Time) ([]Effect, error) {
	switch typed := input.(type) {
	case Confirm:
		typed.Pending = engine.pending
		input = typed
	case BankPending:
		typed.Pending = engine.pending
		input = typed
	case RunCommand:
		typed.Pending = engine.pending
		input = typed
	}
	next, effects, err := Transition(engine.state, input, now)
	if err != nil {
		return nil, err
	}
	engine.state = next

	var writes []Effect
	for _, effect := range effects {
		switch effect := effect.(type) {
		case StartLoop:
			engine.startLoopLocked()
		case StopLoop:
			engine.stopLoopLocked()
		case Emit:
			engine.emitPayloadLocked(now)
		case RecordSession, BankTime:
			writes = append(writes, effect)
		case ClearPending:
			engine.pending = nil
		case Completed:
			engine.pending = &Completion{DurationSec: effect.DurationSec, TaskID: effect.TaskID}
			engine.emitLocked(Event{
				Type:        EventSessionComplete,
				Payload:     Payload(engine.state, engine.config),
				DurationSec: effect.DurationSec,
				TaskID:      effect.TaskID,
				At:          now,
			})
		case Paused:
			engine.emitLocked(Event{
				Type:    EventIdlePaused,
				Payload: Payload(engine.state, engine.config),
				Message: "paused after inactivity",
				At:      now,
			})
		}
	}
	return writes, nil
}

// persist writes sessions and banked time in one store update.
func (engine *Engine) persist(ctx context.Context, writes []Effect) error {
	if len(writes) == 0 || engine.store == nil {
		return nil
	}

	banked := 0
	_, err := engine.store.Update(ctx, func(doc *model.AppState) error {
		banked = 0
		for _, write := range writes {
			switch write := write.(type) {
			case RecordSession:
				doc.AppendSession(model.NewSession(write.Label, write.TaskID, doc.CurrentProjectID, write.Start, write.End))
			case BankTime:
				doc.Bank(write.Seconds, write.TaskID)
				banked += write.Seconds
			}
		}
		return nil
	})

	engine.mu.Lock()
	defer engine.mu.Unlock()
	now := engine.options.Now()
	if err != nil {
		engine.logger.Error("persist timer result", "error", err)
		engine.emitLocked(Event{Type: EventPersistError, Message: err.Error(), At: now})
		return fmt.Errorf("persist timer result: %w", err)
	}
	if banked > 0 {
		engine.emitLocked(Event{Type: EventBanked, DurationSec: banked, At: now})
	}
	return nil
}

func (engine *Engine) startLoopLocked() {
	engine.stopLoopLocked()
	if engine.closed {
		return
	}
	engine.generation++
	engine.lastIdleCheck = time.Time{}
	stopCh := make(chan struct{})
	engine.stopCh = stopCh
	go engine.run(engine.generation, stopCh)
}

func (engine *Engine) stopLoopLocked() {
	if engine.stopCh != nil {
		close(engine.stopCh)
		engine.stopCh = nil
	}
}

func (engine *Engine) run(generation uint64, stopCh <-chan struct{}) {
	ticker := engine.options.NewTicker(engine.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
			engine.tick(generation)
		}
	}
}

// tick advances the timer once. Ticks from a loop that has since been
// stopped or replaced are dropped.
func (engine *Engine) tick(generation uint64) {
	engine.mu.Lock()
	if generation != engine.generation || engine.stopCh == nil {
		engine.mu.Unlock()
		return
	}
	now := engine.options.Now()
	if engine.handleIdleCheckLocked(now) {
		engine.mu.Unlock()
		return
	}
	writes, err := engine.applyLocked(Tick{}, now)
	engine.mu.Unlock()
	if err != nil {
		engine.logger.Warn("timer tick", "error", err)
		return
	}
	if err := engine.persist(context.Background(), writes); err != nil {
		engine.logger.Warn("record completed session", "error", err)
	}
}

// handleIdleCheckLocked pauses the timer after the configured inactivity.
// It reports whether the timer was paused.
func (engine *Engine) handleIdleCheckLocked(now time.Time) bool {
	idle := engine.config.Idle
	if !idle.Enabled || engine.idleChecker == nil {
		return false
	}
	if !engine.lastIdleCheck.IsZero() && now.Sub(engine.lastIdleCheck) < idle.CheckInterval {
		return false
	}
	engine.lastIdleCheck = now

	idleDuration, err := engine.idleChecker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			engine.config.Idle.Enabled = false
		}
		engine.emitLocked(Event{
			Type:    EventIdleError,
			Payload: Payload(engine.state, engine.config),
			Message: err.Error(),
			At:      now,
		})
		return false
	}
	if idleDuration < idle.After {
		return false
	}
	if _, err := engine.applyLocked(IdlePause{}, now); err != nil {
		engine.logger.Warn("idle pause", "error", err)
		return false
	}
	engine.logger.Info("timer paused after inactivity", "idle", idleDuration)
	return true
}

func (engine *Engine) emitPayloadLocked(now time.Time) {
	engine.emitLocked(Event{
		Type:    EventTick,
		Payload: Payload(engine.state, engine.config),
		At:      now,
	})
}

func (engine *Engine) emitLocked(event Event) {
	for _, ch := range engine.events {
		select {
		case ch <- event:
		default:
		}
	}
}

// ParseMMSS parses the inline countdown edit format, "m:ss" or "mm:ss".
func ParseMMSS(value string) (int, error) {
	match := mmssPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return 0, fmt.Errorf("parse %q: %w", value, ErrInvalidDuration)
	}
	minutes, _ := strconv.Atoi(match[1])
	seconds, _ := strconv.Atoi(match[2])
	total := minutes*60 + seconds
	if seconds >= 60 || total <= 0 {
		return 0, fmt.Errorf("parse %q: %w", value, ErrInvalidDuration)
	}
	return total, nil
}
