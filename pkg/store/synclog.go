package store

import (
	"context"
	"fmt"

	"github.com/yaplytics/mindshare/pkg/leaderboard"
)

// AppendSyncLog records an audit entry for a snapshot write. The log is
// append-only; rows are never updated.
func (s *Store) AppendSyncLog(ctx context.Context, snapshotID, status string, syncedItems int, errorDetail string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_log (snapshot_id, status, synced_items, error_detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snapshotID, status, syncedItems, errorDetail, toMillis(s.now().UTC()),
	); err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}

	return nil
}

// SyncLog returns the audit entries for a snapshot, oldest first.
func (s *Store) SyncLog(ctx context.Context, snapshotID string) ([]leaderboard.SyncLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, snapshot_id, status, synced_items, error_detail, created_at
		 FROM sync_log
		 WHERE snapshot_id = ?
		 ORDER BY id ASC`,
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var log []leaderboard.SyncLogEntry
	for rows.Next() {
		var (
			entry     leaderboard.SyncLogEntry
			createdAt int64
		)
		if err := rows.Scan(&entry.ID, &entry.SnapshotID, &entry.Status, &entry.SyncedItems, &entry.ErrorDetail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan sync log entry: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		log = append(log, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync log: %w", err)
	}

	return log, nil
}
