package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Run lifecycle events
	EventTypeRunStarted EventType = "run.started"
	EventTypeRunPaused  EventType = "run.paused"
	EventTypeRunResumed EventType = "run.resumed"
	EventTypeRunStopped EventType = "run.stopped"

	// Detection events
	EventTypeTargetMatched EventType = "target.matched"

	// Click events
	EventTypeClickSucceeded  EventType = "click.succeeded"
	EventTypeClickFailed     EventType = "click.failed"
	EventTypeClickSuppressed EventType = "click.suppressed"

	// Error events
	EventTypeError EventType = "error"
)

// AllEventTypes lists every event type, in declaration order
var AllEventTypes = []EventType{
	EventTypeRunStarted,
	EventTypeRunPaused,
	EventTypeRunResumed,
	EventTypeRunStopped,
	EventTypeTargetMatched,
	EventTypeClickSucceeded,
	EventTypeClickFailed,
	EventTypeClickSuppressed,
	EventTypeError,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "scanner", "executor")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish queues an event for all subscribers (blocking until queued)
	Publish(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(mode string, targets []string) Event {
	return Event{
		Type:      EventTypeRunStarted,
		Source:    "scanner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"mode":    mode,
			"targets": targets,
		},
	}
}

// NewRunStateEvent creates a paused/resumed event
func NewRunStateEvent(eventType EventType) Event {
	return Event{
		Type:      eventType,
		Source:    "scanner",
		Timestamp: time.Now(),
	}
}

// NewRunStoppedEvent creates a run stopped event
func NewRunStoppedEvent(reason string, attempted, succeeded int64, elapsed time.Duration) Event {
	return Event{
		Type:      EventTypeRunStopped,
		Source:    "scanner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reason":           reason,
			"clicks_attempted": attempted,
			"clicks_succeeded": succeeded,
			"elapsed_seconds":  elapsed.Seconds(),
		},
	}
}

// NewTargetMatchedEvent creates a target matched event
func NewTargetMatchedEvent(target string, x, y int) Event {
	return Event{
		Type:      EventTypeTargetMatched,
		Source:    "scanner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"target": target,
			"x":      x,
			"y":      y,
		},
	}
}

// NewClickEvent creates a click succeeded/failed/suppressed event
func NewClickEvent(eventType EventType, x, y int, err error) Event {
	data := map[string]interface{}{
		"x": x,
		"y": y,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return Event{
		Type:      eventType,
		Source:    "executor",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, message string, err error) Event {
	data := map[string]interface{}{
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}
