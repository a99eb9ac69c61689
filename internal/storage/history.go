package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focusflow/internal/core/model"

	_ "modernc.org/sqlite"
)

const historyVersion = 1

// ErrRevisionNotFound is returned by Load for a revision that is not journaled.
var ErrRevisionNotFound = errors.New("revision not found")

// History is the SQLite journal of persisted document revisions.
type History struct {
	db *sql.DB
}

// OpenHistory opens (or creates) the journal at dbPath and runs migrations.
func OpenHistory(dbPath string) (*History, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	history := &History{db: db}
	if err := history.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return history, nil
}

// NewMemoryHistory creates an in-memory journal for tests.
func NewMemoryHistory() (*History, error) {
	return OpenHistory(":memory:")
}

func (history *History) Close() error {
	return history.db.Close()
}

func (history *History) migrate() error {
	var version int
	if err := history.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= historyVersion {
		return nil
	}

	const ddl = `
	CREATE TABLE IF NOT EXISTS revisions (
		revision  INTEGER PRIMARY KEY,
		saved_at  TEXT NOT NULL,
		tasks     INTEGER NOT NULL DEFAULT 0,
		sessions  INTEGER NOT NULL DEFAULT 0,
		pool_sec  INTEGER NOT NULL DEFAULT 0,
		document  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_revisions_saved_at ON revisions(saved_at);`
	if _, err := history.db.Exec(ddl); err != nil {
		return fmt.Errorf("create revisions table: %w", err)
	}

	_, err := history.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", historyVersion))
	return err
}

// Append stores a snapshot, replacing any row with the same revision.
func (history *History) Append(ctx context.Context, snapshot Snapshot) error {
	_, err := history.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO revisions (revision, saved_at, tasks, sessions, pool_sec, document)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int64(snapshot.Revision), snapshot.SavedAt.UTC().Format(time.RFC3339Nano),
		snapshot.Tasks, snapshot.Sessions, snapshot.PoolSec, string(snapshot.Document),
	)
	if err != nil {
		return fmt.Errorf("append revision %d: %w", snapshot.Revision, err)
	}
	return nil
}

// LatestRevision returns the highest journaled revision, or 0.
func (history *History) LatestRevision(ctx context.Context) (uint64, error) {
	var latest int64
	if err := history.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(revision), 0) FROM revisions`).Scan(&latest); err != nil {
		return 0, fmt.Errorf("latest revision: %w", err)
	}
	return uint64(latest), nil
}

// List returns up to limit snapshots, newest first, without their documents.
func (history *History) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := history.db.QueryContext(ctx,
		`SELECT revision, saved_at, tasks, sessions, pool_sec FROM revisions
		 ORDER BY revision DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			snapshot Snapshot
			revision int64
			savedAt  string
		)
		if err := rows.Scan(&revision, &savedAt, &snapshot.Tasks, &snapshot.Sessions, &snapshot.PoolSec); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		snapshot.Revision = uint64(revision)
		snapshot.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

// Load decodes the document stored for revision.
func (history *History) Load(ctx context.Context, revision uint64) (model.AppState, error) {
	var document string
	err := history.db.QueryRowContext(ctx,
		`SELECT document FROM revisions WHERE revision = ?`, int64(revision)).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AppState{}, fmt.Errorf("load revision %d: %w", revision, ErrRevisionNotFound)
	}
	if err != nil {
		return model.AppState{}, fmt.Errorf("load revision %d: %w", revision, err)
	}

	var doc model.AppState
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return model.AppState{}, fmt.Errorf("decode revision %d: %w", revision, err)
	}
	return doc, nil
}

// Prune deletes all but the newest keep revisions and reports how many went.
func (history *History) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	result, err := history.db.ExecContext(ctx,
		`DELETE FROM revisions WHERE revision NOT IN (
			SELECT revision FROM revisions ORDER BY revision DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	removed, _ := result.RowsAffected()
	return removed, nil
}
