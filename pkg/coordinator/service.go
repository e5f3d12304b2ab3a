// Package coordinator drives the periodic and on-demand collection and
// retention triggers, guaranteeing per-trigger mutual exclusion and
// crash-safe scheduling derived from calendar rules.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yaplytics/mindshare/pkg/fetch"
	"github.com/yaplytics/mindshare/pkg/leaderboard"
	"github.com/yaplytics/mindshare/pkg/observability"
	"github.com/yaplytics/mindshare/pkg/store"
)

// Service defines the public interface for the trigger coordinator
type Service interface {
	// Start launches the recurring trigger loops
	Start(ctx context.Context) error

	// Stop gracefully shuts down the coordinator
	Stop() error

	// RunCollectionNow executes the collection action on demand
	RunCollectionNow(ctx context.Context) (CollectionResult, error)

	// RunRetentionNow executes the retention sweep on demand
	RunRetentionNow(ctx context.Context) (RetentionResult, error)

	// ScheduleInfo reports each trigger's next computed fire time and
	// whether it is currently active
	ScheduleInfo() []TriggerInfo
}

// SnapshotReport describes one snapshot produced by a collection run.
type SnapshotReport struct {
	Window      leaderboard.Window `json:"window"`
	SnapshotID  string             `json:"snapshotId"`
	CollectedAt string             `json:"collectedAt"`
	EntryCount  int                `json:"entryCount"`
	IsLive      bool               `json:"isLive"`
}

// CollectionResult reports a full collection run across all configured
// windows.
type CollectionResult struct {
	Snapshots []SnapshotReport `json:"snapshots"`
	StartedAt time.Time        `json:"startedAt"`
	Duration  time.Duration    `json:"duration"`
}

// RetentionResult reports a retention sweep.
type RetentionResult struct {
	DeletedSnapshots int64         `json:"deletedSnapshots"`
	DeletedEntries   int64         `json:"deletedEntries"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
}

// service coordinates the collection and retention triggers
type service struct {
	log logrus.FieldLogger
	cfg *Config

	client  *fetch.Client
	store   *store.Store
	windows []leaderboard.Window

	collection *trigger
	retention  *trigger

	// Synchronization
	done chan struct{}  // Signal shutdown
	wg   sync.WaitGroup // Track goroutines
}

// NewService creates a new coordinator service
func NewService(log logrus.FieldLogger, cfg *Config, client *fetch.Client, st *store.Store) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Scheduling.Timezone, err)
	}

	collection, err := newTrigger(TriggerCollection, collectionSpec(cfg.Scheduling.CollectionWeekday, cfg.Scheduling.CollectionHour), loc)
	if err != nil {
		return nil, err
	}
	retention, err := newTrigger(TriggerRetention, cleanupSpec(cfg.Scheduling.CleanupHour), loc)
	if err != nil {
		return nil, err
	}

	windows, err := cfg.Scheduling.windows()
	if err != nil {
		return nil, err
	}

	return &service{
		log:        log.WithField("service", "coordinator"),
		cfg:        cfg,
		client:     client,
		store:      st,
		windows:    windows,
		collection: collection,
		retention:  retention,
		done:       make(chan struct{}),
	}, nil
}

// Start launches one loop per trigger. The loops are independent tasks: a
// long-running collection never delays the retention sweep.
func (s *service) Start(ctx context.Context) error {
	s.wg.Add(2)
	go s.runLoop(ctx, s.collection, func(loopCtx context.Context) error {
		_, err := s.runCollection(loopCtx)
		return err
	})
	go s.runLoop(ctx, s.retention, func(loopCtx context.Context) error {
		_, err := s.runRetention(loopCtx)
		return err
	})

	s.log.WithFields(logrus.Fields{
		"collection_spec": s.collection.spec,
		"retention_spec":  s.retention.spec,
		"timezone":        s.cfg.Scheduling.Timezone,
	}).Info("Coordinator service started")

	return nil
}

// Stop gracefully shuts down the coordinator service
func (s *service) Stop() error {
	close(s.done)
	s.wg.Wait()

	s.log.Info("Coordinator service stopped successfully")

	return nil
}

// runLoop sleeps until the trigger's next calendar fire time, runs the
// action, and recomputes. The next fire is always derived from the cron
// expression, never from a countdown, so restarts cannot skew it.
func (s *service) runLoop(ctx context.Context, trig *trigger, run func(context.Context) error) {
	defer s.wg.Done()

	for {
		next := trig.nextFire(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.done:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := run(ctx); err != nil {
				// A failed run must not stop the schedule
				s.log.WithError(err).WithField("trigger", trig.name).Error("Scheduled trigger run failed")
			}
		}
	}
}

// RunCollectionNow executes the collection action outside its cadence.
func (s *service) RunCollectionNow(ctx context.Context) (CollectionResult, error) {
	return s.runCollection(ctx)
}

// RunRetentionNow executes the retention sweep outside its cadence.
func (s *service) RunRetentionNow(ctx context.Context) (RetentionResult, error) {
	return s.runRetention(ctx)
}

// runCollection acquires, extracts, and persists a snapshot for every
// configured window, then invalidates the cache if anything was written.
func (s *service) runCollection(ctx context.Context) (CollectionResult, error) {
	if err := s.collection.begin(); err != nil {
		observability.RecordTriggerRun(TriggerCollection, "rejected")
		return CollectionResult{}, err
	}

	start := time.Now()
	result := CollectionResult{StartedAt: start.UTC()}

	var errs []error
	for _, window := range s.windows {
		report, err := s.collectWindow(ctx, window)
		if err != nil {
			s.log.WithError(err).WithField("window", window).Error("Collection failed for window")
			errs = append(errs, fmt.Errorf("window %s: %w", window, err))

			continue
		}
		result.Snapshots = append(result.Snapshots, report)
	}

	if len(result.Snapshots) > 0 {
		// Readers must see the freshly persisted data, not the payloads
		// cached before the write
		s.client.Invalidate()
	}

	runErr := errors.Join(errs...)
	result.Duration = time.Since(start)
	s.collection.finish(runErr, start.UTC())

	status := "success"
	if runErr != nil {
		status = "failed"
	}
	observability.RecordTriggerRun(TriggerCollection, status)
	observability.ObserveTriggerDuration(TriggerCollection, result.Duration.Seconds())

	s.log.WithFields(logrus.Fields{
		"snapshots": len(result.Snapshots),
		"failures":  len(errs),
		"duration":  result.Duration,
	}).Info("Collection run finished")

	return result, runErr
}

// collectWindow runs the acquire → extract → persist pipeline for one
// window. Save's atomicity guarantees a failure leaves no partial snapshot.
func (s *service) collectWindow(ctx context.Context, window leaderboard.Window) (SnapshotReport, error) {
	payload, isLive, err := s.client.Acquire(ctx, window)
	if err != nil {
		return SnapshotReport{}, err
	}

	metrics, err := leaderboard.ExtractMetrics(payload)
	if err != nil {
		return SnapshotReport{}, err
	}
	entries, err := leaderboard.ExtractEntries(payload, s.cfg.Scheduling.EntryLimit, 0)
	if err != nil {
		return SnapshotReport{}, err
	}

	saved, err := s.store.Save(ctx, metrics, entries, window, isLive)
	if err != nil {
		if logErr := s.store.AppendSyncLog(ctx, "", leaderboard.SyncStatusFailed, 0, err.Error()); logErr != nil {
			s.log.WithError(logErr).Warn("Failed to append sync log for failed save")
		}
		return SnapshotReport{}, err
	}

	if err := s.store.AppendSyncLog(ctx, saved.SnapshotID, leaderboard.SyncStatusSuccess, saved.EntryCount, ""); err != nil {
		s.log.WithError(err).WithField("snapshot_id", saved.SnapshotID).Warn("Failed to append sync log")
	}

	return SnapshotReport{
		Window:      window,
		SnapshotID:  saved.SnapshotID,
		CollectedAt: saved.CollectedAt,
		EntryCount:  saved.EntryCount,
		IsLive:      isLive,
	}, nil
}

// runRetention prunes snapshots older than the retention window.
func (s *service) runRetention(ctx context.Context) (RetentionResult, error) {
	if err := s.retention.begin(); err != nil {
		observability.RecordTriggerRun(TriggerRetention, "rejected")
		return RetentionResult{}, err
	}

	start := time.Now()
	snapshots, entries, err := s.store.Prune(ctx, s.cfg.Scheduling.RetentionWeeks)
	duration := time.Since(start)
	s.retention.finish(err, start.UTC())

	status := "success"
	if err != nil {
		status = "failed"
	}
	observability.RecordTriggerRun(TriggerRetention, status)
	observability.ObserveTriggerDuration(TriggerRetention, duration.Seconds())

	if err != nil {
		return RetentionResult{}, err
	}

	return RetentionResult{
		DeletedSnapshots: snapshots,
		DeletedEntries:   entries,
		StartedAt:        start.UTC(),
		Duration:         duration,
	}, nil
}

// ScheduleInfo reports the next computed fire time for each trigger.
func (s *service) ScheduleInfo() []TriggerInfo {
	now := time.Now()

	return []TriggerInfo{
		s.collection.info(now),
		s.retention.info(now),
	}
}

// Ensure service implements the interface
var _ Service = (*service)(nil)
