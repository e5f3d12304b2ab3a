package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yaplytics/mindshare/pkg/leaderboard"
	"github.com/yaplytics/mindshare/pkg/observability"
)

// Prune deletes every snapshot whose collection date is older than
// retentionWeeks before now, along with its entries. Entries go first, in
// the same transaction, so referential integrity holds at every point.
// A sweep with no matching rows is a no-op returning zeros.
func (s *Store) Prune(ctx context.Context, retentionWeeks int) (deletedSnapshots, deletedEntries int64, err error) {
	cutoff := s.now().In(s.loc).AddDate(0, 0, -retentionWeeks*7).Format(leaderboard.DateFormat)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	entriesResult, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE snapshot_id IN (SELECT id FROM snapshots WHERE collected_at < ?)`,
		cutoff,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("delete expired entries: %w", err)
	}
	if deletedEntries, err = entriesResult.RowsAffected(); err != nil {
		return 0, 0, fmt.Errorf("expired entries rows affected: %w", err)
	}

	snapshotsResult, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE collected_at < ?`, cutoff,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("delete expired snapshots: %w", err)
	}
	if deletedSnapshots, err = snapshotsResult.RowsAffected(); err != nil {
		return 0, 0, fmt.Errorf("expired snapshots rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit prune: %w", err)
	}

	observability.RecordRowsPruned("snapshot", deletedSnapshots)
	observability.RecordRowsPruned("entry", deletedEntries)
	s.log.WithFields(logrus.Fields{
		"cutoff":            cutoff,
		"deleted_snapshots": deletedSnapshots,
		"deleted_entries":   deletedEntries,
	}).Info("Pruned expired snapshots")

	return deletedSnapshots, deletedEntries, nil
}

// Stats aggregates store-wide counts. An empty or freshly created store
// yields a zero-valued result, never an error.
type Stats struct {
	SnapshotCount            int64     `json:"snapshotCount"`
	EntryCount               int64     `json:"entryCount"`
	MostRecentCollectionDate string    `json:"mostRecentCollectionDate,omitempty"`
	SyncLogCount             int64     `json:"syncLogCount"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// Stats returns aggregate counts over the whole store.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{GeneratedAt: s.now().UTC()}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&stats.SnapshotCount); err != nil {
		return Stats{}, fmt.Errorf("count snapshots: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&stats.EntryCount); err != nil {
		return Stats{}, fmt.Errorf("count entries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_log`).Scan(&stats.SyncLogCount); err != nil {
		return Stats{}, fmt.Errorf("count sync log: %w", err)
	}

	var mostRecent sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(collected_at) FROM snapshots`).Scan(&mostRecent); err != nil {
		return Stats{}, fmt.Errorf("query most recent collection date: %w", err)
	}
	if mostRecent.Valid {
		stats.MostRecentCollectionDate = mostRecent.String
	}

	return stats, nil
}
