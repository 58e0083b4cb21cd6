package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jordanella.com/autoclicker-go/internal/events"
)

// EventLogger subscribes to event bus and logs all events
type EventLogger struct {
	logger          *Logger
	eventBus        events.EventBus
	subscriptionIDs []events.SubscriptionID
	fileLogger      *zap.Logger
}

// NewEventLogger creates a new event logger. When logDir is non-empty, events are
// also written to a timestamped file in that directory.
func NewEventLogger(eventBus events.EventBus, logger *Logger, logDir string) (*EventLogger, error) {
	el := &EventLogger{
		logger:   logger,
		eventBus: eventBus,
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))

		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		config.Sampling = nil
		config.OutputPaths = []string{logPath}
		config.ErrorOutputPaths = []string{"stderr"}
		fileLogger, err := config.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		el.fileLogger = fileLogger
		el.logger = New(fileLogger, "events")
	}

	el.subscribeToEvents()

	return el, nil
}

// subscribeToEvents subscribes to all event types
func (el *EventLogger) subscribeToEvents() {
	for _, eventType := range events.AllEventTypes {
		id := el.eventBus.Subscribe(eventType, el.handleEvent)
		el.subscriptionIDs = append(el.subscriptionIDs, id)
	}
}

// handleEvent handles incoming events and logs them
func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"event_type": string(event.Type),
		"source":     event.Source,
	}

	for k, v := range event.Data {
		context[k] = v
	}

	el.logger.DebugWithContext(fmt.Sprintf("Event: %s", event.Type), context)
}

// Close unsubscribes from the bus and flushes the event log file
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptionIDs {
		el.eventBus.Unsubscribe(id)
	}
	el.subscriptionIDs = nil

	if el.fileLogger != nil {
		_ = el.fileLogger.Sync()
	}
	return nil
}
