package clicker

import (
	"sync/atomic"
	"time"
)

// Statistics counts clicks for the current run
type Statistics struct {
	attempted atomic.Int64
	succeeded atomic.Int64
	startedAt atomic.Int64 // unix nanos, 0 = not started
	stoppedAt atomic.Int64 // unix nanos, 0 = still running
	now       func() time.Time
}

// Snapshot is a point-in-time copy of the statistics
type Snapshot struct {
	ClicksAttempted int64
	ClicksSucceeded int64
	SuccessRate     float64 // percent, 0 when nothing was attempted
	Elapsed         time.Duration
}

func NewStatistics() *Statistics {
	return &Statistics{now: time.Now}
}

// Reset zeroes the counters and starts the elapsed clock at start
func (s *Statistics) Reset(start time.Time) {
	s.attempted.Store(0)
	s.succeeded.Store(0)
	s.startedAt.Store(start.UnixNano())
	s.stoppedAt.Store(0)
}

// Finish freezes the elapsed clock
func (s *Statistics) Finish(end time.Time) {
	s.stoppedAt.CompareAndSwap(0, end.UnixNano())
}

// RecordAttempt counts a click attempt and, when ok, a success
func (s *Statistics) RecordAttempt(ok bool) {
	// succeeded never runs ahead of attempted for a concurrent reader
	s.attempted.Add(1)
	if ok {
		s.succeeded.Add(1)
	}
}

func (s *Statistics) Snapshot() Snapshot {
	succeeded := s.succeeded.Load()
	attempted := s.attempted.Load()

	snap := Snapshot{
		ClicksAttempted: attempted,
		ClicksSucceeded: succeeded,
	}
	if attempted > 0 {
		snap.SuccessRate = float64(succeeded) / float64(attempted) * 100
	}

	if start := s.startedAt.Load(); start != 0 {
		end := s.stoppedAt.Load()
		if end == 0 {
			end = s.now().UnixNano()
		}
		snap.Elapsed = time.Duration(end - start)
	}
	return snap
}
