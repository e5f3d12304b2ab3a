// Package tracker is the collaborator-facing surface of the mindshare
// tracker. Every operation returns an outcome envelope with a success flag,
// a human-readable error, and the time the operation completed, so transport
// layers can translate results without inspecting internal error types.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yaplytics/mindshare/pkg/coordinator"
	"github.com/yaplytics/mindshare/pkg/fetch"
	"github.com/yaplytics/mindshare/pkg/leaderboard"
	"github.com/yaplytics/mindshare/pkg/store"
)

// MaxPageSize bounds limit for paginated reads.
const MaxPageSize = 250

// Outcome is the envelope shared by every facade result. The underlying
// error is kept alongside the message so callers can classify failures with
// errors.Is without parsing strings.
type Outcome struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	err error
}

// Err returns the underlying error for a failed outcome, nil otherwise.
func (o Outcome) Err() error { return o.err }

func succeeded() Outcome {
	return Outcome{Success: true, Timestamp: time.Now().UTC()}
}

func failed(err error) Outcome {
	return Outcome{Success: false, Error: err.Error(), Timestamp: time.Now().UTC(), err: err}
}

// AcquireResult carries a leaderboard payload and its liveness flag.
type AcquireResult struct {
	Outcome
	Window  leaderboard.Window   `json:"window,omitempty"`
	Payload *leaderboard.Payload `json:"payload,omitempty"`
	IsLive  bool                 `json:"isLive"`
}

// SaveResult reports a persisted snapshot.
type SaveResult struct {
	Outcome
	SnapshotID  string `json:"snapshotId,omitempty"`
	CollectedAt string `json:"collectedAt,omitempty"`
	EntryCount  int    `json:"entryCount"`
}

// SnapshotResult carries one snapshot header.
type SnapshotResult struct {
	Outcome
	Snapshot leaderboard.Snapshot `json:"snapshot,omitempty"`
}

// EntriesResult carries one page of ranked entries.
type EntriesResult struct {
	Outcome
	Entries []leaderboard.Entry `json:"entries,omitempty"`
}

// CountResult carries a single count.
type CountResult struct {
	Outcome
	Count int `json:"count"`
}

// HistoryResult carries one page of snapshot headers plus the total across
// all pages.
type HistoryResult struct {
	Outcome
	Snapshots []leaderboard.Snapshot `json:"snapshots,omitempty"`
	Total     int                    `json:"total"`
}

// CompleteResult carries a snapshot header with an entry page attached.
type CompleteResult struct {
	Outcome
	Snapshot leaderboard.Snapshot `json:"snapshot,omitempty"`
	Entries  []leaderboard.Entry  `json:"entries,omitempty"`
}

// PruneResult reports a retention sweep.
type PruneResult struct {
	Outcome
	DeletedSnapshots int64 `json:"deletedSnapshots"`
	DeletedEntries   int64 `json:"deletedEntries"`
}

// StatsResult carries store-wide totals.
type StatsResult struct {
	Outcome
	Stats store.Stats `json:"stats"`
}

// CollectionResult reports an on-demand collection run.
type CollectionResult struct {
	Outcome
	Snapshots []coordinator.SnapshotReport `json:"snapshots,omitempty"`
	Duration  time.Duration                `json:"duration"`
}

// RetentionResult reports an on-demand retention sweep.
type RetentionResult struct {
	Outcome
	DeletedSnapshots int64         `json:"deletedSnapshots"`
	DeletedEntries   int64         `json:"deletedEntries"`
	Duration         time.Duration `json:"duration"`
}

// ScheduleResult carries per-trigger schedule state.
type ScheduleResult struct {
	Outcome
	Triggers []coordinator.TriggerInfo `json:"triggers"`
}

// Tracker wires the fetch client, snapshot store, and coordinator behind the
// outcome envelope.
type Tracker struct {
	log    logrus.FieldLogger
	client *fetch.Client
	store  *store.Store
	coord  coordinator.Service
}

// New creates the facade over already-constructed components.
func New(log logrus.FieldLogger, client *fetch.Client, st *store.Store, coord coordinator.Service) *Tracker {
	return &Tracker{
		log:    log.WithField("service", "tracker"),
		client: client,
		store:  st,
		coord:  coord,
	}
}

// Acquire fetches the leaderboard payload for a window, serving from cache
// within the TTL.
func (t *Tracker) Acquire(ctx context.Context, window string) AcquireResult {
	w, err := leaderboard.ParseWindow(window)
	if err != nil {
		return AcquireResult{Outcome: failed(err)}
	}

	payload, isLive, err := t.client.Acquire(ctx, w)
	if err != nil {
		return AcquireResult{Outcome: failed(err), Window: w}
	}

	return AcquireResult{Outcome: succeeded(), Window: w, Payload: payload, IsLive: isLive}
}

// Invalidate drops every cached payload.
func (t *Tracker) Invalidate(_ context.Context) Outcome {
	t.client.Invalidate()

	return succeeded()
}

// Save extracts metrics and entries from a payload and persists them as one
// snapshot.
func (t *Tracker) Save(ctx context.Context, payload *leaderboard.Payload, window string, isLive bool, entryLimit int) SaveResult {
	w, err := leaderboard.ParseWindow(window)
	if err != nil {
		return SaveResult{Outcome: failed(err)}
	}
	if entryLimit < 1 || entryLimit > MaxPageSize {
		return SaveResult{Outcome: failed(fmt.Errorf("%w: entry limit %d out of range [1, %d]", leaderboard.ErrInvalidRequest, entryLimit, MaxPageSize))}
	}

	metrics, err := leaderboard.ExtractMetrics(payload)
	if err != nil {
		return SaveResult{Outcome: failed(err)}
	}
	entries, err := leaderboard.ExtractEntries(payload, entryLimit, 0)
	if err != nil {
		return SaveResult{Outcome: failed(err)}
	}

	saved, err := t.store.Save(ctx, metrics, entries, w, isLive)
	if err != nil {
		return SaveResult{Outcome: failed(err)}
	}

	return SaveResult{
		Outcome:     succeeded(),
		SnapshotID:  saved.SnapshotID,
		CollectedAt: saved.CollectedAt,
		EntryCount:  saved.EntryCount,
	}
}

// Latest returns the most recent snapshot header for a window.
func (t *Tracker) Latest(ctx context.Context, window string) SnapshotResult {
	w, err := leaderboard.ParseWindow(window)
	if err != nil {
		return SnapshotResult{Outcome: failed(err)}
	}

	snap, err := t.store.Latest(ctx, w)
	if err != nil {
		return SnapshotResult{Outcome: failed(err)}
	}

	return SnapshotResult{Outcome: succeeded(), Snapshot: snap}
}

// Entries returns one rank-ordered page of a snapshot's entries.
func (t *Tracker) Entries(ctx context.Context, snapshotID string, limit, offset int) EntriesResult {
	if err := validateSnapshotPage(snapshotID, limit, offset); err != nil {
		return EntriesResult{Outcome: failed(err)}
	}

	entries, err := t.store.Entries(ctx, snapshotID, limit, offset)
	if err != nil {
		return EntriesResult{Outcome: failed(err)}
	}

	return EntriesResult{Outcome: succeeded(), Entries: entries}
}

// EntryCount returns the number of entries in a snapshot.
func (t *Tracker) EntryCount(ctx context.Context, snapshotID string) CountResult {
	if snapshotID == "" {
		return CountResult{Outcome: failed(fmt.Errorf("%w: snapshot id is required", leaderboard.ErrInvalidRequest))}
	}

	count, err := t.store.EntryCount(ctx, snapshotID)
	if err != nil {
		return CountResult{Outcome: failed(err)}
	}

	return CountResult{Outcome: succeeded(), Count: count}
}

// History returns one newest-first page of snapshot headers for a window.
func (t *Tracker) History(ctx context.Context, window string, limit, offset int) HistoryResult {
	w, err := leaderboard.ParseWindow(window)
	if err != nil {
		return HistoryResult{Outcome: failed(err)}
	}
	if err := validatePage(limit, offset); err != nil {
		return HistoryResult{Outcome: failed(err)}
	}

	snapshots, total, err := t.store.History(ctx, w, limit, offset)
	if err != nil {
		return HistoryResult{Outcome: failed(err)}
	}

	return HistoryResult{Outcome: succeeded(), Snapshots: snapshots, Total: total}
}

// Complete returns a snapshot header together with one page of its entries.
func (t *Tracker) Complete(ctx context.Context, snapshotID string, limit, offset int) CompleteResult {
	if err := validateSnapshotPage(snapshotID, limit, offset); err != nil {
		return CompleteResult{Outcome: failed(err)}
	}

	complete, err := t.store.Complete(ctx, snapshotID, limit, offset)
	if err != nil {
		return CompleteResult{Outcome: failed(err)}
	}

	return CompleteResult{Outcome: succeeded(), Snapshot: complete.Snapshot, Entries: complete.Entries}
}

// Prune deletes snapshots whose collection date is older than the retention
// window.
func (t *Tracker) Prune(ctx context.Context, retentionWeeks int) PruneResult {
	if retentionWeeks < 1 {
		return PruneResult{Outcome: failed(fmt.Errorf("%w: retention weeks must be positive", leaderboard.ErrInvalidRequest))}
	}

	snapshots, entries, err := t.store.Prune(ctx, retentionWeeks)
	if err != nil {
		return PruneResult{Outcome: failed(err)}
	}

	return PruneResult{Outcome: succeeded(), DeletedSnapshots: snapshots, DeletedEntries: entries}
}

// Stats returns store-wide totals.
func (t *Tracker) Stats(ctx context.Context) StatsResult {
	stats, err := t.store.Stats(ctx)
	if err != nil {
		return StatsResult{Outcome: failed(err)}
	}

	return StatsResult{Outcome: succeeded(), Stats: stats}
}

// RunCollectionNow triggers a collection run outside its cadence.
func (t *Tracker) RunCollectionNow(ctx context.Context) CollectionResult {
	result, err := t.coord.RunCollectionNow(ctx)
	if err != nil {
		return CollectionResult{Outcome: failed(err), Snapshots: result.Snapshots, Duration: result.Duration}
	}

	return CollectionResult{Outcome: succeeded(), Snapshots: result.Snapshots, Duration: result.Duration}
}

// RunRetentionNow triggers a retention sweep outside its cadence.
func (t *Tracker) RunRetentionNow(ctx context.Context) RetentionResult {
	result, err := t.coord.RunRetentionNow(ctx)
	if err != nil {
		return RetentionResult{Outcome: failed(err)}
	}

	return RetentionResult{
		Outcome:          succeeded(),
		DeletedSnapshots: result.DeletedSnapshots,
		DeletedEntries:   result.DeletedEntries,
		Duration:         result.Duration,
	}
}

// ScheduleInfo reports each trigger's next fire time and activity.
func (t *Tracker) ScheduleInfo(_ context.Context) ScheduleResult {
	return ScheduleResult{Outcome: succeeded(), Triggers: t.coord.ScheduleInfo()}
}

// validatePage rejects out-of-range pagination before any store access.
func validatePage(limit, offset int) error {
	if limit < 1 || limit > MaxPageSize {
		return fmt.Errorf("%w: limit %d out of range [1, %d]", leaderboard.ErrInvalidRequest, limit, MaxPageSize)
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", leaderboard.ErrInvalidRequest)
	}

	return nil
}

// validateSnapshotPage additionally requires a snapshot id.
func validateSnapshotPage(snapshotID string, limit, offset int) error {
	if snapshotID == "" {
		return fmt.Errorf("%w: snapshot id is required", leaderboard.ErrInvalidRequest)
	}

	return validatePage(limit, offset)
}

// NotFound reports whether an outcome failed because the requested snapshot
// or window is absent. A normal condition, distinct from storage failures;
// callers map it to their transport's 404.
func NotFound(o Outcome) bool {
	return errors.Is(o.err, leaderboard.ErrNotFound)
}

// InvalidRequest reports whether an outcome was rejected before touching the
// store or network.
func InvalidRequest(o Outcome) bool {
	return errors.Is(o.err, leaderboard.ErrInvalidRequest)
}
