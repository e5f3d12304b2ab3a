// Package store persists immutable leaderboard snapshots in an embedded
// file-backed SQLite database and answers point, range, and aggregate
// queries over them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/yaplytics/mindshare/pkg/leaderboard"
)

// schema creates the three tables and their indexes. Every statement is
// IF NOT EXISTS so repeated startup is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id              TEXT PRIMARY KEY,
	collected_at    TEXT NOT NULL,
	window          TEXT NOT NULL,
	is_live         INTEGER NOT NULL,
	total_yappers   INTEGER NOT NULL,
	total_tweets    INTEGER NOT NULL,
	top_impressions INTEGER NOT NULL,
	top_likes       INTEGER NOT NULL,
	created_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	snapshot_id      TEXT NOT NULL REFERENCES snapshots(id),
	rank             INTEGER NOT NULL,
	username         TEXT NOT NULL,
	mindshare        REAL NOT NULL,
	tweet_count      INTEGER NOT NULL,
	impression_count INTEGER NOT NULL,
	like_count       INTEGER NOT NULL,
	profile_url      TEXT NOT NULL,
	created_at       INTEGER NOT NULL,
	PRIMARY KEY (snapshot_id, rank)
);

CREATE TABLE IF NOT EXISTS sync_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id  TEXT NOT NULL,
	status       TEXT NOT NULL,
	synced_items INTEGER NOT NULL,
	error_detail TEXT NOT NULL DEFAULT '',
	created_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_collected_at ON snapshots(collected_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_window ON snapshots(window, collected_at);
CREATE INDEX IF NOT EXISTS idx_entries_snapshot ON entries(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_entries_rank ON entries(rank);
CREATE INDEX IF NOT EXISTS idx_sync_log_snapshot ON sync_log(snapshot_id);
`

// Store is the embedded snapshot store. All multi-row writes happen inside
// a single transaction so concurrent readers never observe a partially
// written snapshot.
type Store struct {
	log logrus.FieldLogger
	db  *sql.DB
	loc *time.Location

	now func() time.Time
}

// New opens (creating if necessary) the SQLite database at the configured
// path and ensures the schema exists, so queries against a fresh database
// return empty results rather than errors.
func New(log logrus.FieldLogger, cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{
		log: log.WithField("service", "store"),
		db:  db,
		loc: loc,
		now: time.Now,
	}

	// Schema creation is idempotent, so a handle that skips the explicit
	// InitSchema still answers queries with zeroed results instead of
	// missing-table errors
	if err := s.InitSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates tables and indexes. Idempotent: existing objects are
// left untouched and never cause an error.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	s.log.Debug("Schema initialized")

	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// today returns the current calendar day in the store's fixed timezone.
func (s *Store) today() string {
	return s.now().In(s.loc).Format(leaderboard.DateFormat)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
