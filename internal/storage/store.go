package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/logging"
)

var (
	// ErrCorrupt reports a state file that exists but cannot be decoded.
	// The file is never overwritten silently.
	ErrCorrupt = errors.New("state document is corrupt")
	// ErrConflict reports a CompareAndSet against a stale revision.
	ErrConflict = errors.New("state revision conflict")

	errReadBack = errors.New("read-back differs from written document")
)

// Observer is called after every change of the persisted document.
type Observer func(doc model.AppState, revision uint64)

// Snapshot is a journal entry describing one persisted revision.
type Snapshot struct {
	Revision uint64
	SavedAt  time.Time
	Tasks    int
	Sessions int
	PoolSec  int
	Document []byte
}

// Journal records persisted revisions.
type Journal interface {
	Append(ctx context.Context, snapshot Snapshot) error
	LatestRevision(ctx context.Context) (uint64, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Option configures a Store.
type Option func(*Store)

// WithJournal records every write in journal, keeping the latest keep
// revisions. keep <= 0 disables pruning.
func WithJournal(journal Journal, keep int) Option {
	return func(store *Store) {
		store.journal = journal
		store.keep = keep
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(store *Store) {
		if logger != nil {
			store.logger = logger
		}
	}
}

// WithClock overrides the wall clock used for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(store *Store) {
		if now != nil {
			store.now = now
		}
	}
}

// Store owns the single application document on disk.
type Store struct {
	path    string
	journal Journal
	keep    int
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	current   model.AppState
	loaded    bool
	corrupt   bool
	partial   bool
	revision  uint64
	lastBytes []byte

	observerMu   sync.Mutex
	observers    map[int]Observer
	nextObserver int
}

// NewStore returns a store for the document at path. Nothing is read until
// the first Load or Get.
func NewStore(path string, options ...Option) *Store {
	store := &Store{
		path:      path,
		logger:    logging.Nop(),
		now:       time.Now,
		observers: make(map[int]Observer),
	}
	for _, option := range options {
		option(store)
	}
	return store
}

// Path returns the document location.
func (store *Store) Path() string {
	return store.path
}

// Subscribe registers an observer and returns a function that removes it.
func (store *Store) Subscribe(observer Observer) func() {
	store.observerMu.Lock()
	defer store.observerMu.Unlock()

	id := store.nextObserver
	store.nextObserver++
	store.observers[id] = observer
	return func() {
		store.observerMu.Lock()
		delete(store.observers, id)
		store.observerMu.Unlock()
	}
}

// Load reads the document from disk. A missing file installs the default
// document. A corrupt file yields ErrCorrupt together with the last known
// good document.
func (store *Store) Load(ctx context.Context) (model.AppState, error) {
	if err := ctx.Err(); err != nil {
		return model.AppState{}, err
	}
	store.mu.Lock()
	doc, changed, err := store.loadLocked(ctx)
	revision := store.revision
	store.mu.Unlock()

	if changed {
		store.notify(doc, revision)
	}
	return doc, err
}

// Get returns the current document, loading it on first use.
func (store *Store) Get(ctx context.Context) (model.AppState, error) {
	store.mu.Lock()
	if store.loaded {
		doc := model.Clone(store.current)
		store.mu.Unlock()
		return doc, nil
	}
	store.mu.Unlock()
	return store.Load(ctx)
}

// Current returns the document together with its revision.
func (store *Store) Current(ctx context.Context) (model.AppState, uint64, error) {
	doc, err := store.Get(ctx)
	store.mu.Lock()
	defer store.mu.Unlock()
	return doc, store.revision, err
}

// Revision returns the revision of the last persisted or loaded document.
func (store *Store) Revision() uint64 {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.revision
}

// Set persists doc in full, verifies it by reading the file back and
// notifies observers with the persisted value.
func (store *Store) Set(ctx context.Context, doc model.AppState) (model.AppState, error) {
	store.mu.Lock()
	persisted, err := store.writeLocked(ctx, doc)
	revision := store.revision
	store.mu.Unlock()
	if err != nil {
		return model.AppState{}, err
	}

	store.notify(persisted, revision)
	return persisted, nil
}

// CompareAndSet persists doc only when the store is still at expected.
func (store *Store) CompareAndSet(ctx context.Context, doc model.AppState, expected uint64) (model.AppState, error) {
	store.mu.Lock()
	if _, err := store.ensureLoadedLocked(ctx); err != nil {
		store.mu.Unlock()
		return model.AppState{}, err
	}
	if store.revision != expected {
		current := model.Clone(store.current)
		revision := store.revision
		store.mu.Unlock()
		return current, fmt.Errorf("%w: at revision %d, expected %d", ErrConflict, revision, expected)
	}
	persisted, err := store.writeLocked(ctx, doc)
	revision := store.revision
	store.mu.Unlock()
	if err != nil {
		return model.AppState{}, err
	}

	store.notify(persisted, revision)
	return persisted, nil
}

// Update runs a read-modify-write cycle under the store lock. The document
// is normalized before mutate sees it. A mutate error aborts without writing.
func (store *Store) Update(ctx context.Context, mutate func(doc *model.AppState) error) (model.AppState, error) {
	store.mu.Lock()
	if _, err := store.ensureLoadedLocked(ctx); err != nil {
		store.mu.Unlock()
		return model.AppState{}, err
	}

	doc := model.Clone(store.current)
	model.Normalize(&doc)
	if err := mutate(&doc); err != nil {
		store.mu.Unlock()
		return model.AppState{}, err
	}
	persisted, err := store.writeLocked(ctx, doc)
	revision := store.revision
	store.mu.Unlock()
	if err != nil {
		return model.AppState{}, err
	}

	store.notify(persisted, revision)
	return persisted, nil
}

func (store *Store) ensureLoadedLocked(ctx context.Context) (bool, error) {
	if store.loaded {
		return false, nil
	}
	_, changed, err := store.loadLocked(ctx)
	return changed, err
}

func (store *Store) loadLocked(ctx context.Context) (model.AppState, bool, error) {
	raw, err := readDocument(store.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if store.loaded {
			return model.Clone(store.current), false, nil
		}
		store.logger.Info("installing default document", "path", store.path)
		doc, err := store.writeLocked(ctx, model.Default())
		if err != nil {
			return model.Default(), false, fmt.Errorf("install default document: %w", err)
		}
		return doc, true, nil
	case errors.Is(err, errEmptyFile):
		return store.markCorruptLocked(err)
	case err != nil:
		return store.fallbackLocked(), false, fmt.Errorf("read state file: %w", err)
	}

	if store.loaded && bytes.Equal(raw, store.lastBytes) {
		return model.Clone(store.current), false, nil
	}

	var doc model.AppState
	if err := json.Unmarshal(raw, &doc); err != nil {
		return store.markCorruptLocked(err)
	}

	dropped := droppedTasks(doc)
	store.partial = dropped > 0
	if dropped > 0 {
		store.logger.Warn("state document has malformed tasks", "path", store.path, "dropped", dropped)
	}

	wasLoaded := store.loaded
	store.current = doc
	store.loaded = true
	store.corrupt = false
	store.lastBytes = raw
	if !wasLoaded {
		return model.Clone(doc), false, nil
	}

	store.revision++
	store.record(ctx, raw, doc)
	store.logger.Info("state document changed on disk", "revision", store.revision)
	return model.Clone(doc), true, nil
}

func (store *Store) markCorruptLocked(cause error) (model.AppState, bool, error) {
	store.corrupt = true
	store.logger.Error("state document is corrupt", "path", store.path, "error", cause)
	return store.fallbackLocked(), false, fmt.Errorf("%w: %s: %w", ErrCorrupt, store.path, cause)
}

// droppedTasks counts the tasks and columns left out while decoding doc.
func droppedTasks(doc model.AppState) int {
	dropped := 0
	for _, project := range doc.Projects {
		dropped += project.Columns.Dropped()
	}
	return dropped
}

func (store *Store) fallbackLocked() model.AppState {
	if store.loaded {
		return model.Clone(store.current)
	}
	return model.Default()
}

func (store *Store) writeLocked(ctx context.Context, doc model.AppState) (model.AppState, error) {
	if err := ctx.Err(); err != nil {
		return model.AppState{}, err
	}
	if store.corrupt {
		if kept, err := preserveFile(store.path, "corrupt", store.now()); err == nil {
			store.logger.Warn("corrupt state document preserved", "path", kept)
		} else if !errors.Is(err, os.ErrNotExist) {
			return model.AppState{}, fmt.Errorf("preserve corrupt state file: %w", err)
		}
	} else if store.partial {
		if kept, err := preserveFile(store.path, "partial", store.now()); err == nil {
			store.logger.Warn("partially read state document preserved", "path", kept)
		} else if !errors.Is(err, os.ErrNotExist) {
			return model.AppState{}, fmt.Errorf("preserve partial state file: %w", err)
		}
	}

	encoded, err := encodeDocument(doc)
	if err != nil {
		return model.AppState{}, fmt.Errorf("encode state document: %w", err)
	}
	if err := writeFileAtomic(store.path, encoded); err != nil {
		return model.AppState{}, fmt.Errorf("write state file: %w", err)
	}

	raw, err := readDocument(store.path)
	if err != nil {
		return model.AppState{}, fmt.Errorf("verify state file: %w", err)
	}
	if !bytes.Equal(raw, encoded) {
		return model.AppState{}, fmt.Errorf("verify state file: %w", errReadBack)
	}
	var persisted model.AppState
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return model.AppState{}, fmt.Errorf("verify state file: %w", err)
	}

	store.current = persisted
	store.loaded = true
	store.corrupt = false
	store.partial = false
	store.lastBytes = raw
	store.revision++
	store.record(ctx, raw, persisted)
	return model.Clone(persisted), nil
}

// record appends the revision to the journal. Journal failures never fail a write.
func (store *Store) record(ctx context.Context, raw []byte, doc model.AppState) {
	if store.journal == nil {
		return
	}
	counts := doc.TaskCounts()
	snapshot := Snapshot{
		Revision: store.revision,
		SavedAt:  store.now(),
		Tasks:    counts[model.StatusTodo] + counts[model.StatusDoing] + counts[model.StatusDone],
		Sessions: len(doc.TimerSessions),
		PoolSec:  doc.TimePoolSec,
		Document: raw,
	}
	if err := store.journal.Append(ctx, snapshot); err != nil {
		store.logger.Warn("journal append failed", "revision", store.revision, "error", err)
		return
	}
	if store.keep > 0 {
		if _, err := store.journal.Prune(ctx, store.keep); err != nil {
			store.logger.Warn("journal prune failed", "error", err)
		}
	}
}

// SyncRevision moves the revision counter past the journal so revisions keep
// increasing across restarts.
func (store *Store) SyncRevision(ctx context.Context) error {
	if store.journal == nil {
		return nil
	}
	latest, err := store.journal.LatestRevision(ctx)
	if err != nil {
		return fmt.Errorf("read latest revision: %w", err)
	}
	store.mu.Lock()
	if latest > store.revision {
		store.revision = latest
	}
	store.mu.Unlock()
	return nil
}

func (store *Store) notify(doc model.AppState, revision uint64) {
	store.observerMu.Lock()
	observers := make([]Observer, 0, len(store.observers))
	for _, observer := range store.observers {
		observers = append(observers, observer)
	}
	store.observerMu.Unlock()

	for _, observer := range observers {
		observer(model.Clone(doc), revision)
	}
}
