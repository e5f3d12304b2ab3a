package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrTriggerBusy is returned when a trigger fires while its previous
// invocation is still running. Overlapping runs of the same trigger are
// forbidden; concurrent runs of different triggers are fine.
var ErrTriggerBusy = errors.New("trigger is already running")

// Trigger names.
const (
	TriggerCollection = "collection"
	TriggerRetention  = "retention"
)

// Run outcomes reported by TriggerInfo.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// trigger is one named recurring action with the Idle → Running →
// (Succeeded | Failed) → Idle state machine. The fire time is always
// recomputed from the cron expression so it stays correct across restarts.
type trigger struct {
	name     string
	spec     string
	schedule cron.Schedule
	loc      *time.Location

	mu          sync.Mutex
	running     bool
	lastRun     time.Time
	lastOutcome string
	lastError   string
}

// newTrigger parses a standard five-field cron spec in the given location.
func newTrigger(name, spec string, loc *time.Location) (*trigger, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q for trigger %s: %w", spec, name, err)
	}

	return &trigger{
		name:     name,
		spec:     spec,
		schedule: schedule,
		loc:      loc,
	}, nil
}

// collectionSpec builds the weekly collection cron expression from
// weekday/hour calendar rules.
func collectionSpec(weekday, hour int) string {
	return fmt.Sprintf("0 %d * * %d", hour, weekday)
}

// cleanupSpec builds the daily retention sweep cron expression.
func cleanupSpec(hour int) string {
	return fmt.Sprintf("0 %d * * *", hour)
}

// begin transitions Idle → Running, rejecting overlap.
func (t *trigger) begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("%w: %s", ErrTriggerBusy, t.name)
	}
	t.running = true

	return nil
}

// finish records the run outcome and returns the trigger to Idle.
func (t *trigger) finish(runErr error, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false
	t.lastRun = at
	if runErr != nil {
		t.lastOutcome = OutcomeFailed
		t.lastError = runErr.Error()
		return
	}
	t.lastOutcome = OutcomeSucceeded
	t.lastError = ""
}

// nextFire computes the next fire time after now from calendar arithmetic.
func (t *trigger) nextFire(now time.Time) time.Time {
	return t.schedule.Next(now.In(t.loc))
}

// TriggerInfo describes a trigger's schedule and most recent run.
type TriggerInfo struct {
	Name        string    `json:"name"`
	Spec        string    `json:"spec"`
	NextFire    time.Time `json:"nextFire"`
	Active      bool      `json:"active"`
	LastRun     time.Time `json:"lastRun,omitempty"`
	LastOutcome string    `json:"lastOutcome,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
}

// info snapshots the trigger state.
func (t *trigger) info(now time.Time) TriggerInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TriggerInfo{
		Name:        t.name,
		Spec:        t.spec,
		NextFire:    t.nextFire(now),
		Active:      t.running,
		LastRun:     t.lastRun,
		LastOutcome: t.lastOutcome,
		LastError:   t.lastError,
	}
}
