package clicker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// RunState represents the lifecycle of a scan run
type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	StatePaused
	StateStopped
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// RunController manages the execution state and control signals for a run.
// Every transition is a compare-and-swap on the state word; waiters are woken
// through a channel that is closed and replaced on each transition.
type RunController struct {
	state     atomic.Int32
	startedAt atomic.Int64 // unix nanos
	deadline  atomic.Int64 // unix nanos, 0 = none
	now       func() time.Time

	mu      sync.Mutex // protects changed
	changed chan struct{}
}

// NewRunController creates an idle controller
func NewRunController() *RunController {
	rc := &RunController{
		now:     time.Now,
		changed: make(chan struct{}),
	}
	rc.state.Store(int32(StateIdle))
	return rc
}

// WithClock replaces time.Now
func (rc *RunController) WithClock(now func() time.Time) *RunController {
	rc.now = now
	return rc
}

// State returns the current execution state
func (rc *RunController) State() RunState {
	return RunState(rc.state.Load())
}

// IsRunning returns true while a run is active and not paused
func (rc *RunController) IsRunning() bool {
	return rc.State() == StateRunning
}

// IsPaused returns true if execution is paused
func (rc *RunController) IsPaused() bool {
	return rc.State() == StatePaused
}

// IsStopped returns true once the run was stopped
func (rc *RunController) IsStopped() bool {
	return rc.State() == StateStopped
}

// transition moves from one state to another if the current state is from
func (rc *RunController) transition(from, to RunState) bool {
	if !rc.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	rc.signal()
	return true
}

func (rc *RunController) signal() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	close(rc.changed)
	rc.changed = make(chan struct{})
}

// Changed returns a channel closed on the next state transition
func (rc *RunController) Changed() <-chan struct{} {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.changed
}

// Start moves an idle or stopped controller to running and arms the deadline.
// Returns false if a run is already active.
func (rc *RunController) Start(maxRuntime time.Duration) bool {
	from := rc.State()
	if from != StateIdle && from != StateStopped {
		return false
	}

	now := rc.now()
	rc.startedAt.Store(now.UnixNano())
	if maxRuntime > 0 {
		rc.deadline.Store(now.Add(maxRuntime).UnixNano())
	} else {
		rc.deadline.Store(0)
	}

	return rc.transition(from, StateRunning)
}

// Pause pauses a running run
// Returns true if pause was initiated, false if not running
func (rc *RunController) Pause() bool {
	return rc.transition(StateRunning, StatePaused)
}

// Resume resumes a paused run
// Returns true if resume was initiated, false if not paused
func (rc *RunController) Resume() bool {
	return rc.transition(StatePaused, StateRunning)
}

// TogglePause pauses a running run or resumes a paused one.
// Returns the resulting state.
func (rc *RunController) TogglePause() RunState {
	if rc.Pause() {
		return StatePaused
	}
	if rc.Resume() {
		return StateRunning
	}
	return rc.State()
}

// Stop stops a running or paused run
// Returns true if this call performed the transition
func (rc *RunController) Stop() bool {
	for {
		s := rc.State()
		if s != StateRunning && s != StatePaused {
			return false
		}
		if rc.transition(s, StateStopped) {
			return true
		}
	}
}

// StartedAt returns when the current or last run started
func (rc *RunController) StartedAt() time.Time {
	ns := rc.startedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// DeadlineExceeded reports whether a max runtime is armed and has elapsed
func (rc *RunController) DeadlineExceeded() bool {
	deadline := rc.deadline.Load()
	return deadline != 0 && rc.now().UnixNano() >= deadline
}

// remaining returns the time left before the deadline, if one is armed
func (rc *RunController) remaining() (time.Duration, bool) {
	deadline := rc.deadline.Load()
	if deadline == 0 {
		return 0, false
	}
	return time.Duration(deadline - rc.now().UnixNano()), true
}

// WaitWhilePaused blocks until the run is resumed, stopped or ctx is done.
// Returns true if execution should continue.
func (rc *RunController) WaitWhilePaused(ctx context.Context) bool {
	for {
		changed := rc.Changed()
		switch rc.State() {
		case StateStopped:
			return false
		case StatePaused:
		default:
			return true
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return false
		}
	}
}

// CheckPauseOrStop checks if execution should pause or stop
// Returns true if execution should continue, false if stopped
// If paused, blocks until resumed or stopped
func (rc *RunController) CheckPauseOrStop() bool {
	return rc.WaitWhilePaused(context.Background())
}

// Sleep waits for d. It returns early with false when the run is stopped, the
// max runtime elapses or ctx is done; pausing does not cut the sleep short.
func (rc *RunController) Sleep(ctx context.Context, d time.Duration) bool {
	capped := false
	if remaining, ok := rc.remaining(); ok && remaining < d {
		if remaining <= 0 {
			return false
		}
		d, capped = remaining, true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		changed := rc.Changed()
		if rc.IsStopped() {
			return false
		}

		select {
		case <-timer.C:
			return !capped && !rc.IsStopped()
		case <-changed:
		case <-ctx.Done():
			return false
		}
	}
}
