package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"focusflow/internal/broadcast"
	"focusflow/internal/core/model"
	"focusflow/internal/core/timer"
	"focusflow/internal/ipc"
	"focusflow/internal/logging"
	"focusflow/internal/notify"
	"focusflow/internal/platform"
	"focusflow/internal/storage"
	"focusflow/internal/ui/animation"
	"focusflow/internal/ui/board"
	"focusflow/internal/ui/overlay"
	"focusflow/internal/ui/panel"
	"focusflow/internal/ui/preferences"
	"focusflow/internal/ui/shell"
	"focusflow/internal/ui/tray"
	"focusflow/internal/update"
	"focusflow/internal/window"
	"focusflow/resources"
)

const notificationSurface = "notifications"

// appHost holds every long lived component of the GUI process.
type appHost struct {
	ctx    context.Context
	logger *slog.Logger
	paths  storage.Paths

	settingsMu sync.Mutex
	settings   preferences.Settings

	fyneApp     fyne.App
	guard       *platform.InstanceGuard
	history     *storage.History
	store       *storage.Store
	engine      *timer.Engine
	router      *broadcast.Router
	relay       *ipc.Relay
	notifier    *notify.Service
	coordinator *window.Coordinator
	shell       *shell.Manager
	overlay     *overlay.View
	panel       *panel.View
	board       *board.View
	prefs       *preferences.Window
	tray        *tray.Manager
	updater     *update.Checker

	quitOnce sync.Once
}

func runApp(parent context.Context, configDir string) error {
	paths, err := storage.ResolvePaths(configDir)
	if err != nil {
		return err
	}
	if err := paths.Ensure(); err != nil {
		return err
	}

	settings, settingsErr := storage.LoadSettings(paths.Settings)
	logger, logCloser, logErr := logging.Setup(paths.Log, logging.ParseLevel(settings.LogLevel))
	defer logCloser.Close()
	if logErr != nil {
		logger.Warn("log file unavailable", "error", logErr)
	}
	if settingsErr != nil {
		logger.Warn("settings unreadable, using defaults", "path", paths.Settings, "error", settingsErr)
	}

	guard, err := platform.AcquireSingleInstance(storage.AppName, logger)
	if errors.Is(err, platform.ErrAlreadyRunning) {
		logger.Info("another instance is running, activating it")
		if err := platform.Activate(storage.AppName); err != nil {
			return fmt.Errorf("activate running instance: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	host := &appHost{
		ctx:      ctx,
		logger:   logger,
		paths:    paths,
		settings: settings,
		guard:    guard,
	}
	if err := host.build(); err != nil {
		guard.Release()
		return err
	}
	host.start()
	host.fyneApp.Run()
	host.shutdown(cancel)
	return nil
}

func (host *appHost) build() error {
	ctx := host.ctx
	logger := host.logger
	settings := host.currentSettings()

	host.fyneApp = app.NewWithID(appID)
	host.fyneApp.SetIcon(resources.MustLogo(resources.LogoIdle))

	storeOptions := []storage.Option{storage.WithLogger(logger)}
	history, err := storage.OpenHistory(host.paths.History)
	if err != nil {
		logger.Warn("revision history unavailable", "path", host.paths.History, "error", err)
	} else {
		host.history = history
		storeOptions = append(storeOptions, storage.WithJournal(history, settings.HistoryKeep))
	}
	host.store = storage.NewStore(host.paths.State, storeOptions...)
	if err := host.store.SyncRevision(ctx); err != nil {
		logger.Warn("revision sync failed", "error", err)
	}
	if _, err := host.store.Load(ctx); err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			return fmt.Errorf("load state: %w", err)
		}
		logger.Error("state file is corrupt, continuing with the last good document", "error", err)
	}

	host.router = broadcast.NewRouter(broadcast.Options{Logger: logger})
	host.engine = timer.New(settings.TimerConfig(), host.store, timer.Options{Logger: logger})
	host.engine.SetIdleChecker(platform.NewIdleProvider())
	host.relay = ipc.NewRelay(host.engine, nil, logger)
	host.notifier = notify.NewService(notify.FyneSender(host.fyneApp), notify.Options{Logger: logger})

	host.buildOverlay(settings)
	host.buildBoard()
	host.buildPreferences(settings)
	host.buildTray()
	host.buildUpdater(settings)

	host.router.Register(window.SurfaceMain, host.board)
	host.router.Register(window.SurfaceOverlay, host.overlay)
	host.router.Register(window.SurfacePanel, host.panel)
	host.router.Register(notificationSurface, host.notifier)
	host.relay.SetEditor(host.board)
	host.store.Subscribe(host.router.PublishState)
	return nil
}

func (host *appHost) buildOverlay(settings preferences.Settings) {
	host.overlay = overlay.New(overlay.Options{
		Opacity: settings.OverlayOpacity,
		Actions: overlay.Actions{
			Command: func(command model.Command) {
				go host.command(command)
			},
			EditTask: func(taskID string) {
				go func() {
					if err := host.relay.EditTask(host.ctx, taskID); err != nil {
						host.logger.Warn("task edit failed", "task", taskID, "error", err)
					}
				}()
			},
			TogglePanel: func(open bool) {
				if err := host.coordinator.TogglePanel(open); err != nil {
					host.logger.Warn("panel toggle failed", "error", err)
					host.overlay.SetPanelOpen(false)
					return
				}
				if open {
					host.syncSurface(window.SurfacePanel)
				}
			},
			SetMode: host.setOverlayMode,
			Hide: func() {
				host.coordinator.HideOverlay()
				host.overlay.SetPanelOpen(false)
			},
			Drag: func(offset fyne.Delta, done bool) {
				dx, dy, ok := host.shell.DragDelta(offset)
				if !ok {
					return
				}
				host.coordinator.MoveOverlayBy(dx, dy, done)
			},
		},
	})

	host.panel = panel.New(panel.Options{
		Timer: host.engine,
		Store: host.store,
		RequestHeight: func(height int) {
			host.coordinator.RequestPanelHeight(height)
		},
		OnError: host.reportError,
		Logger:  host.logger,
	})

	host.shell = shell.New(host.fyneApp, shell.Options{
		Overlay: host.overlay,
		Panel:   host.panel,
		Opacity: settings.OverlayOpacity,
		OnOverlayClosed: func() {
			host.coordinator.OverlayClosed()
			host.overlay.SetPanelOpen(false)
		},
		Logger: host.logger,
	})

	player := animation.New(animation.DefaultConfig(), host.panel.ApplyTransition)
	host.coordinator = window.NewCoordinator(host.shell, window.Options{
		Mode:      settings.OverlayMode,
		Messenger: host.router,
		Animator:  player,
		Logger:    host.logger,
	})
}

func (host *appHost) buildBoard() {
	host.board = board.New(host.fyneApp, board.Options{
		Timer: host.engine,
		Store: host.store,
		Actions: board.Actions{
			ShowOverlay: host.showOverlayBar,
			Preferences: func() { host.prefs.Show() },
			InstallUpdate: func() error {
				if host.updater == nil {
					return update.ErrNothingDownloaded
				}
				return host.updater.Install()
			},
			Quit: host.quit,
		},
		Logger: host.logger,
	})
}

func (host *appHost) buildPreferences(settings preferences.Settings) {
	host.prefs = preferences.New(host.fyneApp, settings, host.applySettings)
}

func (host *appHost) buildTray() {
	desktopApp, ok := host.fyneApp.(desktop.App)
	if !ok {
		host.logger.Info("system tray unsupported on this platform")
		return
	}
	host.tray = tray.New(desktopApp, tray.Callbacks{
		OnShowOverlay: host.showOverlayBar,
		OnOpen:        host.board.Show,
		OnPreferences: func() { host.prefs.Show() },
		OnTogglePause: func() {
			go host.command(model.CommandPause)
		},
		OnQuit: host.quit,
	}, tray.Icons{
		Idle:   resources.MustLogo(resources.LogoIdle),
		Active: resources.MustLogo(resources.LogoActive),
		Paused: resources.MustLogo(resources.LogoPaused),
	})
}

func (host *appHost) buildUpdater(settings preferences.Settings) {
	if !settings.CheckUpdates || settings.UpdateFeed == "" {
		return
	}
	host.updater = update.NewChecker(update.Options{
		FeedURL:        settings.UpdateFeed,
		CurrentVersion: version,
		DownloadDir:    filepath.Join(host.paths.Dir, "updates"),
		Logger:         host.logger,
		Installer:      host.installUpdate,
	})
}

// start publishes the initial state and launches the background loops.
func (host *appHost) start() {
	ctx := host.ctx
	settings := host.currentSettings()

	doc, revision, err := host.store.Current(ctx)
	if err == nil || errors.Is(err, storage.ErrCorrupt) {
		host.router.PublishState(doc, revision)
	}
	payload := host.engine.Payload()
	host.router.Publish(ipc.TimerTick{Payload: payload})
	if host.tray != nil {
		host.tray.SetPayload(payload)
	}

	go host.runTimerEvents(host.engine.Subscribe(32))
	go func() {
		if err := host.store.Watch(ctx); err != nil {
			host.logger.Warn("state watcher stopped", "error", err)
		}
	}()
	go func() {
		err := host.guard.Serve(ctx, platform.InstanceHandlers{
			OnActivate: func() {
				fyne.Do(host.board.Show)
			},
			OnMessage: func(msg ipc.Message) {
				if err := host.relay.Dispatch(ctx, msg); err != nil {
					host.logger.Warn("instance message failed", "kind", msg.Kind(), "error", err)
				}
			},
		})
		if err != nil {
			host.logger.Warn("instance listener stopped", "error", err)
		}
	}()
	if host.updater != nil {
		go host.runUpdates(host.updater.Subscribe(16))
		go host.updater.CheckAndDownload(ctx)
	}

	host.board.Show()
	if settings.ShowOverlayOnStart {
		host.showOverlay()
	}
}

func (host *appHost) runTimerEvents(events <-chan timer.Event) {
	previous := model.TimerIdle
	for event := range events {
		switch event.Type {
		case timer.EventTick:
			payload := event.Payload
			host.router.Publish(ipc.TimerTick{Payload: payload})
			host.coordinator.ObservePayload(payload)
			if host.tray != nil {
				fyne.Do(func() { host.tray.SetPayload(payload) })
			}
			if previous == model.TimerIdle && payload.Mode.Active() && host.currentSettings().MinimizeOnStart {
				fyne.Do(host.board.Hide)
			}
			previous = payload.Mode
		case timer.EventSessionComplete:
			host.notifier.Notify(notify.SessionComplete(event.DurationSec))
			host.board.ShowSessionComplete(event.DurationSec)
		case timer.EventIdlePaused:
			host.notifier.Notify(notify.IdlePaused())
		case timer.EventBanked:
			host.logger.Info("time banked", "seconds", event.DurationSec)
		case timer.EventIdleError, timer.EventPersistError:
			host.logger.Warn("timer reported a problem", "event", event.Type, "message", event.Message)
		}
	}
}

func (host *appHost) runUpdates(events <-chan update.Event) {
	for event := range events {
		host.board.ShowUpdateEvent(event)
		if event.Type == update.EventDownloaded {
			host.notifier.Notify(notify.UpdateReady(event.Release.Version))
		}
	}
}

func (host *appHost) command(command model.Command) {
	if err := host.relay.Command(host.ctx, command); err != nil {
		host.reportError(err)
	}
}

func (host *appHost) reportError(err error) {
	if err == nil {
		return
	}
	host.logger.Warn("action failed", "error", err)
	if errors.Is(err, timer.ErrTimerActive) {
		host.notifier.Notify(notify.TimerActive())
	}
}

// showOverlayBar opens the overlay in bar mode from the tray or the board.
func (host *appHost) showOverlayBar() {
	host.setOverlayMode(window.ModeBar)
	host.showOverlay()
}

func (host *appHost) showOverlay() {
	if err := host.coordinator.ShowOverlay(); err != nil {
		host.logger.Warn("overlay unavailable", "error", err)
		return
	}
	host.syncSurface(window.SurfaceOverlay)
}

// syncSurface sends the current document and timer state to a surface whose
// window was just created.
func (host *appHost) syncSurface(name string) {
	doc, revision, err := host.store.Current(host.ctx)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		host.logger.Warn("state unavailable for surface", "surface", name, "error", err)
	} else {
		host.router.Send(name, ipc.StoreUpdated{State: doc, Revision: revision})
	}
	host.router.Send(name, ipc.TimerTick{Payload: host.engine.Payload()})
}

func (host *appHost) setOverlayMode(mode window.Mode) {
	applied := host.coordinator.SetOverlayMode(mode)
	host.settingsMu.Lock()
	changed := host.settings.OverlayMode != applied
	host.settings.OverlayMode = applied
	settings := host.settings
	host.settingsMu.Unlock()
	if changed {
		host.saveSettings(settings)
	}
}

func (host *appHost) applySettings(updated preferences.Settings) {
	host.settingsMu.Lock()
	host.settings = updated
	host.settingsMu.Unlock()

	host.saveSettings(updated)
	host.engine.UpdateConfig(updated.TimerConfig())
	host.coordinator.SetOverlayMode(updated.OverlayMode)
	host.overlay.SetOpacity(updated.OverlayOpacity)
	host.shell.SetOpacity(updated.OverlayOpacity)
}

func (host *appHost) saveSettings(settings preferences.Settings) {
	if err := storage.SaveSettings(host.paths.Settings, settings); err != nil {
		host.logger.Warn("settings not saved", "error", err)
	}
}

func (host *appHost) currentSettings() preferences.Settings {
	host.settingsMu.Lock()
	defer host.settingsMu.Unlock()
	return host.settings
}

// installUpdate launches the downloaded installer and quits.
func (host *appHost) installUpdate(path string) error {
	if err := exec.Command(path).Start(); err != nil {
		return fmt.Errorf("launch installer: %w", err)
	}
	fyne.Do(host.quit)
	return nil
}

func (host *appHost) quit() {
	host.quitOnce.Do(func() {
		host.engine.Stop()
		host.fyneApp.Quit()
	})
}

// shutdown releases everything after the event loop returned.
func (host *appHost) shutdown(cancel context.CancelFunc) {
	cancel()
	host.engine.Stop()
	host.router.Close()
	host.notifier.Close()
	if host.history != nil {
		closeQuietly(host.logger, "history", host.history)
	}
	if err := host.guard.Release(); err != nil {
		host.logger.Warn("instance lock release failed", "error", err)
	}
	host.logger.Info("focusflow stopped")
}

func closeQuietly(logger *slog.Logger, name string, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("close failed", "resource", name, "error", err)
	}
}
