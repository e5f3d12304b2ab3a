package coordinator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerSpecs(t *testing.T) {
	assert.Equal(t, "0 10 * * 3", collectionSpec(3, 10))
	assert.Equal(t, "0 2 * * *", cleanupSpec(2))
}

func TestTriggerNextFire(t *testing.T) {
	trig, err := newTrigger(TriggerCollection, collectionSpec(3, 10), time.UTC)
	require.NoError(t, err)

	t.Run("fires on the next Wednesday at 10:00", func(t *testing.T) {
		// Monday 2026-01-05 09:00 UTC
		now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
		next := trig.nextFire(now)
		assert.Equal(t, time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC), next)
		assert.Equal(t, time.Wednesday, next.Weekday())
	})

	t.Run("rolls to next week after the fire time", func(t *testing.T) {
		// Wednesday 2026-01-07 10:30, just after the fire time
		now := time.Date(2026, 1, 7, 10, 30, 0, 0, time.UTC)
		next := trig.nextFire(now)
		assert.Equal(t, time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC), next)
	})

	t.Run("restart-safe: independent of any timer state", func(t *testing.T) {
		now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, trig.nextFire(now), trig.nextFire(now))
	})
}

func TestTriggerNextFireDaily(t *testing.T) {
	trig, err := newTrigger(TriggerRetention, cleanupSpec(2), time.UTC)
	require.NoError(t, err)

	now := time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)
	next := trig.nextFire(now)
	assert.Equal(t, time.Date(2026, 1, 6, 2, 0, 0, 0, time.UTC), next)
}

func TestTriggerNextFireHonorsTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	trig, err := newTrigger(TriggerRetention, cleanupSpec(2), loc)
	require.NoError(t, err)

	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	next := trig.nextFire(now)
	assert.Equal(t, 2, next.In(loc).Hour())
}

func TestTriggerStateMachine(t *testing.T) {
	trig, err := newTrigger(TriggerCollection, collectionSpec(3, 10), time.UTC)
	require.NoError(t, err)

	// Idle → Running
	require.NoError(t, trig.begin())

	// Running rejects overlap
	err = trig.begin()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTriggerBusy)

	// Running → Failed → Idle
	at := time.Now().UTC()
	trig.finish(errors.New("upstream down"), at)

	info := trig.info(time.Now())
	assert.False(t, info.Active)
	assert.Equal(t, OutcomeFailed, info.LastOutcome)
	assert.Equal(t, "upstream down", info.LastError)
	assert.Equal(t, at, info.LastRun)

	// Idle again: a new run is accepted and can succeed
	require.NoError(t, trig.begin())
	trig.finish(nil, time.Now().UTC())

	info = trig.info(time.Now())
	assert.Equal(t, OutcomeSucceeded, info.LastOutcome)
	assert.Empty(t, info.LastError)
}

func TestNewTriggerRejectsBadSpec(t *testing.T) {
	_, err := newTrigger("broken", "not a cron spec", time.UTC)
	assert.Error(t, err)
}
