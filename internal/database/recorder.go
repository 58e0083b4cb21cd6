package database

import (
	"sync"

	"jordanella.com/autoclicker-go/internal/events"
	"jordanella.com/autoclicker-go/internal/logging"
)

// Recorder writes run history from scan loop events. Storage errors are
// logged; they never reach the loop.
type Recorder struct {
	db     *DB
	logger *logging.Logger

	mu         sync.Mutex
	runID      int64
	lastTarget string
	subs       []events.SubscriptionID
}

func NewRecorder(db *DB, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewLogger("history")
	}
	return &Recorder{db: db, logger: logger}
}

// Attach subscribes the recorder to the run and click events of bus
func (r *Recorder) Attach(bus events.EventBus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, eventType := range []events.EventType{
		events.EventTypeRunStarted,
		events.EventTypeRunStopped,
		events.EventTypeTargetMatched,
		events.EventTypeClickSucceeded,
		events.EventTypeClickFailed,
		events.EventTypeClickSuppressed,
	} {
		r.subs = append(r.subs, bus.Subscribe(eventType, r.HandleEvent))
	}
}

// Detach removes every subscription made by Attach
func (r *Recorder) Detach(bus events.EventBus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.subs {
		bus.Unsubscribe(id)
	}
	r.subs = nil
}

// CurrentRun returns the id of the open run, or 0
func (r *Recorder) CurrentRun() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// HandleEvent records a single event
func (r *Recorder) HandleEvent(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.EventTypeRunStarted:
		r.startRun(event)
	case events.EventTypeRunStopped:
		r.finishRun(event)
	case events.EventTypeTargetMatched:
		r.lastTarget, _ = event.Data["target"].(string)
	case events.EventTypeClickSucceeded:
		r.recordClick(event, OutcomeSucceeded)
	case events.EventTypeClickFailed:
		r.recordClick(event, OutcomeFailed)
	case events.EventTypeClickSuppressed:
		r.recordClick(event, OutcomeSuppressed)
	}
}

func (r *Recorder) startRun(event events.Event) {
	mode, _ := event.Data["mode"].(string)
	targets, _ := event.Data["targets"].([]string)

	id, err := r.db.StartRun(mode, targets, event.Timestamp)
	if err != nil {
		r.logger.Error("Failed to record run start", err)
		r.runID = 0
		return
	}
	r.runID = id
	r.lastTarget = ""
}

func (r *Recorder) finishRun(event events.Event) {
	if r.runID == 0 {
		return
	}
	defer func() { r.runID = 0 }()

	reason, _ := event.Data["reason"].(string)
	attempted, _ := event.Data["clicks_attempted"].(int64)
	succeeded, _ := event.Data["clicks_succeeded"].(int64)

	if err := r.db.FinishRun(r.runID, reason, attempted, succeeded, event.Timestamp); err != nil {
		r.logger.ErrorWithContext("Failed to record run end", err, map[string]interface{}{
			"run_id": r.runID,
		})
	}
}

func (r *Recorder) recordClick(event events.Event, outcome string) {
	if r.runID == 0 {
		return
	}

	x, _ := event.Data["x"].(int)
	y, _ := event.Data["y"].(int)
	errMsg, _ := event.Data["error"].(string)

	_, err := r.db.RecordClick(Click{
		RunID:     r.runID,
		X:         x,
		Y:         y,
		Outcome:   outcome,
		Target:    r.lastTarget,
		Error:     errMsg,
		ClickedAt: event.Timestamp,
	})
	if err != nil {
		r.logger.ErrorWithContext("Failed to record click", err, map[string]interface{}{
			"run_id":  r.runID,
			"outcome": outcome,
		})
	}
}
