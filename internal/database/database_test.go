package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/autoclicker-go/internal/events"
	"jordanella.com/autoclicker-go/internal/logging"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.WithLogger(logging.NewNop())
	require.NoError(t, db.RunMigrations())
	return db
}

var base = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestDatabaseInitialization(t *testing.T) {
	db := openTestDB(t)

	version, err := db.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), version)

	_, err = os.Stat(db.Path())
	assert.NoError(t, err, "database file was not created")

	// Re-running is a no-op
	require.NoError(t, db.RunMigrations())
	version, err = db.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), version)

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"runs": 0, "clicks": 0}, stats)
}

func TestRollback(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RollbackTo(1))
	version, err := db.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	_, err = db.GetStats()
	assert.Error(t, err, "runs table should be gone")

	require.NoError(t, db.RunMigrations())
	version, err = db.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), version)
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	id, err := db.StartRun("mixed", []string{"ok.png", "Yes, continue"}, base)
	require.NoError(t, err)

	run, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, "mixed", run.Mode)
	assert.Equal(t, []string{"ok.png", "Yes, continue"}, run.Targets)
	assert.True(t, run.StartedAt.Equal(base))
	assert.False(t, run.Finished())
	assert.Nil(t, run.DurationSeconds)

	stopped := base.Add(90 * time.Second)
	require.NoError(t, db.FinishRun(id, "stopped", 5, 4, stopped))

	run, err = db.GetRun(id)
	require.NoError(t, err)
	require.True(t, run.Finished())
	assert.True(t, run.StoppedAt.Equal(stopped))
	assert.Equal(t, "stopped", run.StopReason)
	assert.Equal(t, int64(5), run.ClicksAttempted)
	assert.Equal(t, int64(4), run.ClicksSucceeded)
	require.NotNil(t, run.DurationSeconds)
	assert.InDelta(t, 90.0, *run.DurationSeconds, 0.01)
}

func TestUnknownRun(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetRun(42)
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = db.FinishRun(42, "stopped", 0, 0, base)
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, err = db.RecordClick(Click{RunID: 42, Outcome: OutcomeSucceeded, ClickedAt: base})
	assert.Error(t, err, "foreign key should reject clicks for unknown runs")
}

func TestRecordClicks(t *testing.T) {
	db := openTestDB(t)

	id, err := db.StartRun("image", []string{"ok.png"}, base)
	require.NoError(t, err)

	for i, c := range []Click{
		{X: 10, Y: 20, Outcome: OutcomeSucceeded, Target: "ok.png"},
		{X: 5, Y: 5, Outcome: OutcomeSuppressed, Target: "ok.png"},
		{X: 10, Y: 20, Outcome: OutcomeFailed, Target: "ok.png", Error: "xdotool exited 1"},
	} {
		c.RunID = id
		c.ClickedAt = base.Add(time.Duration(i) * time.Second)
		_, err := db.RecordClick(c)
		require.NoError(t, err)
	}

	_, err = db.RecordClick(Click{RunID: id, Outcome: "maybe", ClickedAt: base})
	assert.Error(t, err, "outcome is constrained")

	clicks, err := db.ListClicks(id)
	require.NoError(t, err)
	require.Len(t, clicks, 3)
	assert.Equal(t, OutcomeSucceeded, clicks[0].Outcome)
	assert.Equal(t, 10, clicks[0].X)
	assert.Empty(t, clicks[0].Error)
	assert.Equal(t, "xdotool exited 1", clicks[2].Error)
	assert.True(t, clicks[1].ClickedAt.Equal(base.Add(time.Second)))

	counts, err := db.OutcomeCounts(id)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		OutcomeSucceeded:  1,
		OutcomeFailed:     1,
		OutcomeSuppressed: 1,
	}, counts)
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	for i, mode := range []string{"image", "text", "pattern"} {
		_, err := db.StartRun(mode, nil, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	runs, err := db.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "pattern", runs[0].Mode)
	assert.Equal(t, "image", runs[2].Mode)
	assert.Nil(t, runs[0].Targets)

	runs, err = db.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRecorder(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewEventBus(32)

	recorder := NewRecorder(db, logging.NewNop())
	recorder.Attach(bus)

	bus.Publish(events.NewClickEvent(events.EventTypeClickSucceeded, 1, 1, nil)) // before any run
	bus.Publish(events.NewRunStartedEvent("image", []string{"ok.png"}))
	bus.Publish(events.NewTargetMatchedEvent("ok.png", 72, 48))
	bus.Publish(events.NewClickEvent(events.EventTypeClickSucceeded, 72, 48, nil))
	bus.Publish(events.NewClickEvent(events.EventTypeClickFailed, 72, 48, errors.New("boom")))
	bus.Publish(events.NewClickEvent(events.EventTypeClickSuppressed, 3, 4, nil))
	bus.Publish(events.NewRunStoppedEvent("max runtime reached", 2, 1, 3*time.Second))
	bus.Stop()

	assert.Zero(t, recorder.CurrentRun())

	runs, err := db.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, "image", run.Mode)
	assert.Equal(t, []string{"ok.png"}, run.Targets)
	assert.Equal(t, "max runtime reached", run.StopReason)
	assert.Equal(t, int64(2), run.ClicksAttempted)
	assert.Equal(t, int64(1), run.ClicksSucceeded)

	clicks, err := db.ListClicks(run.ID)
	require.NoError(t, err)
	require.Len(t, clicks, 3)
	assert.Equal(t, "ok.png", clicks[0].Target)
	assert.Equal(t, OutcomeFailed, clicks[1].Outcome)
	assert.Equal(t, "boom", clicks[1].Error)
	assert.Equal(t, 3, clicks[2].X)
}

func TestRecorderDetach(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewEventBus(8)
	defer bus.Stop()

	recorder := NewRecorder(db, logging.NewNop())
	recorder.Attach(bus)
	recorder.Detach(bus)

	assert.Zero(t, bus.GetSubscriberCount(events.EventTypeRunStarted))
	assert.Zero(t, bus.GetSubscriberCount(events.EventTypeClickSucceeded))
}
