package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"focusflow/internal/core/model"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	history, err := NewMemoryHistory()
	if err != nil {
		t.Fatalf("new memory history: %v", err)
	}
	t.Cleanup(func() { history.Close() })
	return history
}

func TestHistoryMigrates(t *testing.T) {
	history := newTestHistory(t)
	var version int
	history.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != historyVersion {
		t.Fatalf("expected user_version %d, got %d", historyVersion, version)
	}
}

func TestStoreJournalsEveryWrite(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t)
	clock := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(filepath.Join(t.TempDir(), "state.json"),
		WithJournal(history, 0),
		WithClock(func() time.Time { return clock }),
	)

	if _, err := store.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	doc := sampleDocument()
	if _, err := store.Set(ctx, doc); err != nil {
		t.Fatalf("set: %v", err)
	}

	snapshots, err := history.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(snapshots))
	}
	latest := snapshots[0]
	if latest.Revision != 2 || latest.Tasks != 1 || latest.Sessions != 1 || latest.PoolSec != 120 {
		t.Fatalf("unexpected snapshot %+v", latest)
	}
	if !latest.SavedAt.Equal(clock) {
		t.Fatalf("unexpected saved_at %v", latest.SavedAt)
	}

	first, err := history.Load(ctx, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first.TimePoolSec != 0 || len(first.Projects) != 1 {
		t.Fatalf("unexpected first revision %+v", first)
	}
	if _, err := history.Load(ctx, 99); !errors.Is(err, ErrRevisionNotFound) {
		t.Fatalf("expected ErrRevisionNotFound, got %v", err)
	}
}

func TestHistoryPrune(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t)
	for revision := uint64(1); revision <= 5; revision++ {
		if err := history.Append(ctx, Snapshot{Revision: revision, SavedAt: time.Now(), Document: []byte(`{}`)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	removed, err := history.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	latest, _ := history.LatestRevision(ctx)
	if latest != 5 {
		t.Fatalf("expected latest 5, got %d", latest)
	}
	snapshots, _ := history.List(ctx, 0)
	if len(snapshots) != 2 || snapshots[1].Revision != 4 {
		t.Fatalf("unexpected remaining %+v", snapshots)
	}
}

func TestSyncRevisionContinuesJournal(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t)
	if err := history.Append(ctx, Snapshot{Revision: 41, SavedAt: time.Now(), Document: []byte(`{}`)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	store := NewStore(filepath.Join(t.TempDir(), "state.json"), WithJournal(history, 0))
	if err := store.SyncRevision(ctx); err != nil {
		t.Fatalf("sync revision: %v", err)
	}
	if _, err := store.Set(ctx, model.Default()); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Revision() != 42 {
		t.Fatalf("expected revision 42, got %d", store.Revision())
	}
}
