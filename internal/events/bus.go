package events

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type subscription struct {
	id      SubscriptionID
	handler EventHandler
}

// DefaultEventBus queues published events and delivers them one at a time,
// in publish order, on a single bus goroutine. Handlers therefore never run
// concurrently with each other.
type DefaultEventBus struct {
	mu sync.RWMutex
	// Per-type subscriber lists are copy-on-write so dispatch can iterate
	// them without holding the lock
	subscribers map[EventType][]subscription
	owners      map[SubscriptionID]EventType
	lastID      SubscriptionID

	queue    chan Event
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger *zap.Logger
}

// NewEventBus starts a bus whose queue holds bufferSize events before
// Publish blocks
func NewEventBus(bufferSize int) *DefaultEventBus {
	eb := &DefaultEventBus{
		subscribers: make(map[EventType][]subscription),
		owners:      make(map[SubscriptionID]EventType),
		queue:       make(chan Event, bufferSize),
		done:        make(chan struct{}),
		logger:      zap.L().Named("events"),
	}

	eb.wg.Add(1)
	go eb.run()

	return eb
}

func (eb *DefaultEventBus) Subscribe(eventType EventType, handler EventHandler) SubscriptionID {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastID++
	id := eb.lastID

	current := eb.subscribers[eventType]
	next := make([]subscription, len(current), len(current)+1)
	copy(next, current)
	eb.subscribers[eventType] = append(next, subscription{id: id, handler: handler})
	eb.owners[id] = eventType

	return id
}

// Unsubscribe is a no-op for unknown ids
func (eb *DefaultEventBus) Unsubscribe(id SubscriptionID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eventType, ok := eb.owners[id]
	if !ok {
		return
	}
	delete(eb.owners, id)

	current := eb.subscribers[eventType]
	next := make([]subscription, 0, len(current))
	for _, sub := range current {
		if sub.id != id {
			next = append(next, sub)
		}
	}
	if len(next) == 0 {
		delete(eb.subscribers, eventType)
		return
	}
	eb.subscribers[eventType] = next
}

// Publish blocks while the queue is full. Events published after Stop are dropped.
func (eb *DefaultEventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-eb.done:
		eb.dropped(event)
		return
	default:
	}

	select {
	case eb.queue <- event:
	case <-eb.done:
		eb.dropped(event)
	}
}

// Stop delivers every queued event, then ends the bus goroutine. It may be
// called more than once.
func (eb *DefaultEventBus) Stop() {
	eb.stopOnce.Do(func() { close(eb.done) })
	eb.wg.Wait()
}

func (eb *DefaultEventBus) run() {
	defer eb.wg.Done()

	for {
		select {
		case event := <-eb.queue:
			eb.dispatch(event)
		case <-eb.done:
			for {
				select {
				case event := <-eb.queue:
					eb.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (eb *DefaultEventBus) dispatch(event Event) {
	eb.mu.RLock()
	subs := eb.subscribers[event.Type]
	eb.mu.RUnlock()

	for _, sub := range subs {
		eb.deliver(sub, event)
	}
}

// deliver isolates the bus from a panicking handler
func (eb *DefaultEventBus) deliver(sub subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error("Event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.Int64("subscription", int64(sub.id)),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	sub.handler(event)
}

func (eb *DefaultEventBus) dropped(event Event) {
	eb.logger.Debug("Dropped event published after stop", zap.String("event_type", string(event.Type)))
}

// GetSubscriberCount returns the number of subscribers for an event type
func (eb *DefaultEventBus) GetSubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return len(eb.subscribers[eventType])
}
