package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yaplytics/mindshare/pkg/leaderboard"
	"github.com/yaplytics/mindshare/pkg/observability"
)

// SaveResult reports a persisted snapshot.
type SaveResult struct {
	SnapshotID  string `json:"snapshotId"`
	CollectedAt string `json:"collectedAt"`
	EntryCount  int    `json:"entryCount"`
}

// Save writes a snapshot header and all its entries as one atomic unit.
// Either the full snapshot becomes visible to readers or none of it does;
// a failed save leaves zero rows for the generated snapshot id.
func (s *Store) Save(ctx context.Context, metrics leaderboard.Metrics, entries []leaderboard.Entry, window leaderboard.Window, isLive bool) (SaveResult, error) {
	id := uuid.NewString()
	collectedAt := s.today()
	createdAt := toMillis(s.now().UTC())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, collected_at, window, is_live, total_yappers, total_tweets, top_impressions, top_likes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, collectedAt, window.String(), boolToInt(isLive),
		metrics.TotalYappers, metrics.TotalTweets, metrics.TopImpressions, metrics.TopLikes,
		createdAt,
	); err != nil {
		return SaveResult{}, fmt.Errorf("insert snapshot header: %w", err)
	}

	for i := range entries {
		entry := &entries[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (snapshot_id, rank, username, mindshare, tweet_count, impression_count, like_count, profile_url, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, entry.Rank, entry.Username, entry.Mindshare,
			entry.TweetCount, entry.ImpressionCount, entry.LikeCount,
			entry.ProfileURL, createdAt,
		); err != nil {
			return SaveResult{}, fmt.Errorf("insert entry rank %d: %w", entry.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SaveResult{}, fmt.Errorf("commit snapshot: %w", err)
	}

	observability.RecordSnapshotSaved(window.String())
	s.log.WithFields(logrus.Fields{
		"snapshot_id": id,
		"window":      window,
		"entries":     len(entries),
		"is_live":     isLive,
	}).Info("Saved snapshot")

	return SaveResult{SnapshotID: id, CollectedAt: collectedAt, EntryCount: len(entries)}, nil
}

const snapshotColumns = `id, collected_at, window, is_live, total_yappers, total_tweets, top_impressions, top_likes, created_at`

// Latest returns the most recent snapshot for a window, ordered by
// collection date then write order. Absence is reported as ErrNotFound.
func (s *Store) Latest(ctx context.Context, window leaderboard.Window) (leaderboard.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+`
		 FROM snapshots
		 WHERE window = ?
		 ORDER BY collected_at DESC, created_at DESC, rowid DESC
		 LIMIT 1`,
		window.String(),
	)

	snapshot, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leaderboard.Snapshot{}, leaderboard.ErrNotFound
		}
		return leaderboard.Snapshot{}, fmt.Errorf("query latest snapshot: %w", err)
	}

	if snapshot.EntryCount, err = s.EntryCount(ctx, snapshot.ID); err != nil {
		return leaderboard.Snapshot{}, err
	}

	return snapshot, nil
}

// Entries returns a page of a snapshot's entries ordered by rank ascending.
func (s *Store) Entries(ctx context.Context, snapshotID string, limit, offset int) ([]leaderboard.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, username, mindshare, tweet_count, impression_count, like_count, profile_url
		 FROM entries
		 WHERE snapshot_id = ?
		 ORDER BY rank ASC
		 LIMIT ? OFFSET ?`,
		snapshotID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]leaderboard.Entry, 0, limit)
	for rows.Next() {
		var entry leaderboard.Entry
		if err := rows.Scan(
			&entry.Rank, &entry.Username, &entry.Mindshare,
			&entry.TweetCount, &entry.ImpressionCount, &entry.LikeCount,
			&entry.ProfileURL,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// EntryCount returns the number of entries for a snapshot.
func (s *Store) EntryCount(ctx context.Context, snapshotID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE snapshot_id = ?`, snapshotID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}

	return count, nil
}

// History returns a page of snapshot headers for a window, newest first,
// together with the total count for the window.
func (s *Store) History(ctx context.Context, window leaderboard.Window, limit, offset int) ([]leaderboard.Snapshot, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE window = ?`, window.String(),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshots: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.collected_at, s.window, s.is_live, s.total_yappers, s.total_tweets, s.top_impressions, s.top_likes, s.created_at,
		        (SELECT COUNT(*) FROM entries e WHERE e.snapshot_id = s.id)
		 FROM snapshots s
		 WHERE s.window = ?
		 ORDER BY s.collected_at DESC, s.created_at DESC, s.rowid DESC
		 LIMIT ? OFFSET ?`,
		window.String(), limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshots := make([]leaderboard.Snapshot, 0, limit)
	for rows.Next() {
		var (
			snapshot  leaderboard.Snapshot
			isLive    int
			createdAt int64
		)
		if err := rows.Scan(
			&snapshot.ID, &snapshot.CollectedAt, &snapshot.Window, &isLive,
			&snapshot.Metrics.TotalYappers, &snapshot.Metrics.TotalTweets,
			&snapshot.Metrics.TopImpressions, &snapshot.Metrics.TopLikes,
			&createdAt, &snapshot.EntryCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshot.IsLive = isLive != 0
		snapshot.CreatedAt = fromMillis(createdAt)
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history: %w", err)
	}

	return snapshots, total, nil
}

// CompleteSnapshot is a snapshot header together with one page of entries.
type CompleteSnapshot struct {
	leaderboard.Snapshot
	Entries []leaderboard.Entry `json:"entries"`
}

// Complete returns a snapshot header plus a page of its entries. A missing
// snapshot is ErrNotFound; a snapshot with no entries is a valid result with
// an empty page.
func (s *Store) Complete(ctx context.Context, snapshotID string, limit, offset int) (CompleteSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, snapshotID,
	)

	snapshot, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CompleteSnapshot{}, leaderboard.ErrNotFound
		}
		return CompleteSnapshot{}, fmt.Errorf("query snapshot: %w", err)
	}

	if snapshot.EntryCount, err = s.EntryCount(ctx, snapshotID); err != nil {
		return CompleteSnapshot{}, err
	}

	entries, err := s.Entries(ctx, snapshotID, limit, offset)
	if err != nil {
		return CompleteSnapshot{}, err
	}

	return CompleteSnapshot{Snapshot: snapshot, Entries: entries}, nil
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (leaderboard.Snapshot, error) {
	var (
		snapshot  leaderboard.Snapshot
		isLive    int
		createdAt int64
	)
	if err := row.Scan(
		&snapshot.ID, &snapshot.CollectedAt, &snapshot.Window, &isLive,
		&snapshot.Metrics.TotalYappers, &snapshot.Metrics.TotalTweets,
		&snapshot.Metrics.TopImpressions, &snapshot.Metrics.TopLikes,
		&createdAt,
	); err != nil {
		return leaderboard.Snapshot{}, err
	}
	snapshot.IsLive = isLive != 0
	snapshot.CreatedAt = fromMillis(createdAt)

	return snapshot, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
