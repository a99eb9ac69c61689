// Package notify shows desktop notifications on a best-effort basis.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"focusflow/internal/core/model"
	"focusflow/internal/ipc"
	"focusflow/internal/logging"
)

const (
	defaultDedupeWindow = 5 * time.Second
	queueSize           = 32
)

// Notification is a desktop notification.
type Notification struct {
	Title string
	Body  string
}

// Sender shows a notification.
type Sender interface {
	Send(notification Notification) error
}

// SenderFunc adapts a function to a Sender.
type SenderFunc func(notification Notification) error

func (fn SenderFunc) Send(notification Notification) error { return fn(notification) }

// FyneSender shows notifications through the fyne application.
func FyneSender(app fyne.App) Sender {
	return SenderFunc(func(notification Notification) error {
		app.SendNotification(fyne.NewNotification(notification.Title, notification.Body))
		return nil
	})
}

// Options configures a Service.
type Options struct {
	DedupeWindow time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// Service queues notifications and delivers them off the caller's goroutine.
// Identical notifications within the dedupe window are dropped. Failures are
// logged and never reported to the caller.
type Service struct {
	sender Sender
	window time.Duration
	logger *slog.Logger
	now    func() time.Time

	queue    chan Notification
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	lastSent map[string]time.Time
}

// NewService starts a notification service.
func NewService(sender Sender, options Options) *Service {
	if options.DedupeWindow <= 0 {
		options.DedupeWindow = defaultDedupeWindow
	}
	if options.Logger == nil {
		options.Logger = logging.Nop()
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	service := &Service{
		sender:   sender,
		window:   options.DedupeWindow,
		logger:   options.Logger,
		now:      options.Now,
		queue:    make(chan Notification, queueSize),
		cancel:   cancel,
		lastSent: make(map[string]time.Time),
	}
	service.wg.Add(1)
	go service.run(ctx)
	return service
}

// Notify queues a notification. It never blocks.
func (service *Service) Notify(notification Notification) {
	notification.Title = strings.TrimSpace(notification.Title)
	notification.Body = strings.TrimSpace(notification.Body)
	if notification.Title == "" && notification.Body == "" {
		return
	}

	service.mu.Lock()
	defer service.mu.Unlock()
	if service.closed {
		return
	}
	select {
	case service.queue <- notification:
	default:
		service.logger.Warn("notification queue full", "title", notification.Title)
	}
}

// Alive reports whether the service accepts notifications.
func (service *Service) Alive() bool {
	service.mu.Lock()
	defer service.mu.Unlock()
	return !service.closed
}

// Deliver shows ipc.Notification messages and ignores every other kind, so
// the service can be registered with the broadcast router.
func (service *Service) Deliver(msg ipc.Message) error {
	if notification, ok := msg.(ipc.Notification); ok {
		service.Notify(Notification{Title: notification.Title, Body: notification.Body})
	}
	return nil
}

// Close stops delivery. Queued notifications are dropped.
func (service *Service) Close() {
	service.mu.Lock()
	if service.closed {
		service.mu.Unlock()
		return
	}
	service.closed = true
	service.mu.Unlock()

	service.cancel()
	service.wg.Wait()
}

func (service *Service) run(ctx context.Context) {
	defer service.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case notification := <-service.queue:
			service.handle(notification)
		}
	}
}

func (service *Service) handle(notification Notification) {
	if service.sender == nil || service.suppress(notification) {
		return
	}
	err := func() (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("notification panic: %v", recovered)
			}
		}()
		return service.sender.Send(notification)
	}()
	if err != nil {
		service.logger.Warn("notification failed", "title", notification.Title, "error", err)
	}
}

func (service *Service) suppress(notification Notification) bool {
	key := notification.Title + "\x00" + notification.Body
	now := service.now()
	if last, ok := service.lastSent[key]; ok && now.Sub(last) < service.window {
		return true
	}
	service.lastSent[key] = now
	for other, sent := range service.lastSent {
		if now.Sub(sent) >= service.window {
			delete(service.lastSent, other)
		}
	}
	return false
}

// SessionComplete is shown when a countdown reaches zero.
func SessionComplete(durationSec int) Notification {
	return Notification{
		Title: "Session complete",
		Body:  fmt.Sprintf("You focused for %s.", model.FormatHHMMSS(durationSec)),
	}
}

// TimerActive is shown when a start is refused because the other timer runs.
func TimerActive() Notification {
	return Notification{
		Title: "Timer already active",
		Body:  "Confirm or reset the running timer first.",
	}
}

// IdlePaused is shown when the timer paused after inactivity.
func IdlePaused() Notification {
	return Notification{
		Title: "Timer paused",
		Body:  "No activity was detected, so the timer was paused.",
	}
}

// UpdateReady is shown when an update was downloaded.
func UpdateReady(version string) Notification {
	return Notification{
		Title: "Update ready",
		Body:  fmt.Sprintf("FocusFlow %s will be installed on restart.", version),
	}
}
