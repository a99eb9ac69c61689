// Package update checks a release feed, downloads newer builds and hands
// them to an installer.
package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"focusflow/internal/logging"
)

var (
	ErrInvalidVersion    = errors.New("invalid version")
	ErrNoFeed            = errors.New("no update feed configured")
	ErrNothingDownloaded = errors.New("no update downloaded")
	ErrAlreadyInstalling = errors.New("update install already started")
	ErrChecksumMismatch  = errors.New("update checksum mismatch")
)

// EventType names a step of the update flow.
type EventType string

const (
	EventChecking     EventType = "checking"
	EventAvailable    EventType = "available"
	EventNotAvailable EventType = "not-available"
	EventError        EventType = "error"
	EventProgress     EventType = "progress"
	EventDownloaded   EventType = "downloaded"
)

// Release is the feed document describing the newest build.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Notes   string `json:"notes,omitempty"`
	SHA256  string `json:"sha256,omitempty"`
}

// Progress describes a running download.
type Progress struct {
	Transferred    int64
	Total          int64
	Percent        float64
	BytesPerSecond float64
}

// Event is an update status change.
type Event struct {
	Type     EventType
	Release  Release
	Progress Progress
	Path     string
	Err      error
}

// Options configures a Checker.
type Options struct {
	FeedURL        string
	CurrentVersion string
	DownloadDir    string
	Client         *http.Client
	Logger         *slog.Logger
	// Installer applies a downloaded build. It is expected to restart the
	// application.
	Installer func(path string) error
}

// Checker runs update checks against a JSON release feed.
type Checker struct {
	options Options
	client  *http.Client
	logger  *slog.Logger

	mu         sync.Mutex
	events     []chan Event
	downloaded string
	release    Release
	installing bool
}

func NewChecker(options Options) *Checker {
	client := options.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	if options.DownloadDir == "" {
		options.DownloadDir = os.TempDir()
	}
	return &Checker{options: options, client: client, logger: logger}
}

// Subscribe registers a new observer channel.
func (checker *Checker) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	checker.mu.Lock()
	checker.events = append(checker.events, ch)
	checker.mu.Unlock()
	return ch
}

// Check fetches the feed and reports whether it names a newer version.
func (checker *Checker) Check(ctx context.Context) (Release, bool, error) {
	checker.emit(Event{Type: EventChecking})

	release, err := checker.fetch(ctx)
	if err != nil {
		return Release{}, false, checker.fail(fmt.Errorf("check for update: %w", err))
	}
	newer, err := Newer(release.Version, checker.options.CurrentVersion)
	if err != nil {
		return Release{}, false, checker.fail(fmt.Errorf("check for update: %w", err))
	}
	if !newer {
		checker.logger.Info("application is up to date", "version", checker.options.CurrentVersion)
		checker.emit(Event{Type: EventNotAvailable, Release: release})
		return release, false, nil
	}
	checker.logger.Info("update available", "version", release.Version)
	checker.emit(Event{Type: EventAvailable, Release: release})
	return release, true, nil
}

// CheckAndDownload checks the feed and downloads a newer build.
func (checker *Checker) CheckAndDownload(ctx context.Context) error {
	release, newer, err := checker.Check(ctx)
	if err != nil || !newer {
		return err
	}
	_, err = checker.Download(ctx, release)
	return err
}

// Download fetches the build of release, verifying its checksum when the
// feed provides one.
func (checker *Checker) Download(ctx context.Context, release Release) (string, error) {
	target, err := checker.download(ctx, release)
	if err != nil {
		return "", checker.fail(fmt.Errorf("download update: %w", err))
	}

	checker.mu.Lock()
	checker.downloaded = target
	checker.release = release
	checker.mu.Unlock()

	checker.logger.Info("update downloaded", "version", release.Version, "path", target)
	checker.emit(Event{Type: EventDownloaded, Release: release, Path: target})
	return target, nil
}

// Install hands the downloaded build to the installer. It runs at most once.
func (checker *Checker) Install() error {
	checker.mu.Lock()
	if checker.installing {
		checker.mu.Unlock()
		return ErrAlreadyInstalling
	}
	if checker.downloaded == "" {
		checker.mu.Unlock()
		return ErrNothingDownloaded
	}
	if checker.options.Installer == nil {
		checker.mu.Unlock()
		return errors.New("install update: no installer configured")
	}
	checker.installing = true
	target := checker.downloaded
	checker.mu.Unlock()

	if err := checker.options.Installer(target); err != nil {
		checker.mu.Lock()
		checker.installing = false
		checker.mu.Unlock()
		return checker.fail(fmt.Errorf("install update: %w", err))
	}
	return nil
}

// Downloaded returns the release waiting to be installed.
func (checker *Checker) Downloaded() (Release, bool) {
	checker.mu.Lock()
	defer checker.mu.Unlock()
	return checker.release, checker.downloaded != ""
}

func (checker *Checker) fetch(ctx context.Context) (Release, error) {
	if strings.TrimSpace(checker.options.FeedURL) == "" {
		return Release{}, ErrNoFeed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checker.options.FeedURL, nil)
	if err != nil {
		return Release{}, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := checker.client.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&release); err != nil {
		return Release{}, fmt.Errorf("decode feed: %w", err)
	}
	if release.URL == "" {
		return Release{}, fmt.Errorf("decode feed: release %q has no url", release.Version)
	}
	return release, nil
}

func (checker *Checker) download(ctx context.Context, release Release) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, release.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := checker.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(checker.options.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		name = "focusflow-" + release.Version
	}
	target := filepath.Join(checker.options.DownloadDir, name)
	partial := target + ".part"

	file, err := os.Create(partial)
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	hash := sha256.New()
	counter := &progressWriter{
		total:   resp.ContentLength,
		started: time.Now(),
		report: func(progress Progress) {
			checker.emit(Event{Type: EventProgress, Release: release, Progress: progress})
		},
	}
	_, copyErr := io.Copy(io.MultiWriter(file, hash, counter), resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		os.Remove(partial)
		return "", fmt.Errorf("write download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(partial)
		return "", fmt.Errorf("close download: %w", closeErr)
	}
	counter.finish()

	if want := strings.ToLower(strings.TrimSpace(release.SHA256)); want != "" {
		if got := hex.EncodeToString(hash.Sum(nil)); got != want {
			os.Remove(partial)
			return "", fmt.Errorf("%w: got %s", ErrChecksumMismatch, got)
		}
	}
	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("finalize download: %w", err)
	}
	return target, nil
}

func (checker *Checker) fail(err error) error {
	checker.logger.Warn("update failed", "error", err)
	checker.emit(Event{Type: EventError, Err: err})
	return err
}

func (checker *Checker) emit(event Event) {
	checker.mu.Lock()
	defer checker.mu.Unlock()
	for _, ch := range checker.events {
		select {
		case ch <- event:
		default:
		}
	}
}

// Newer reports whether candidate is a higher semantic version than current.
// A leading "v" is optional on both.
func Newer(candidate, current string) (bool, error) {
	candidateVersion, err := canonical(candidate)
	if err != nil {
		return false, err
	}
	currentVersion, err := canonical(current)
	if err != nil {
		return false, err
	}
	return semver.Compare(candidateVersion, currentVersion) > 0, nil
}

func canonical(version string) (string, error) {
	version = strings.TrimSpace(version)
	if version != "" && !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return version, nil
}

const progressStep = 64 << 10

type progressWriter struct {
	total       int64
	transferred int64
	lastReport  int64
	started     time.Time
	report      func(Progress)
}

func (writer *progressWriter) Write(p []byte) (int, error) {
	writer.transferred += int64(len(p))
	if writer.transferred-writer.lastReport >= progressStep {
		writer.send()
	}
	return len(p), nil
}

func (writer *progressWriter) finish() {
	if writer.transferred != writer.lastReport || writer.transferred == 0 {
		writer.send()
	}
}

func (writer *progressWriter) send() {
	writer.lastReport = writer.transferred
	progress := Progress{Transferred: writer.transferred, Total: writer.total}
	if writer.total > 0 {
		progress.Percent = float64(writer.transferred) * 100 / float64(writer.total)
	}
	if elapsed := time.Since(writer.started).Seconds(); elapsed > 0 {
		progress.BytesPerSecond = float64(writer.transferred) / elapsed
	}
	writer.report(progress)
}
