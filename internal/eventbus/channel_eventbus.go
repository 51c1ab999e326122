package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/PIP-Team-3/pip-final-project-sub000/internal/logging"
)

// ChannelEventBus fans materialization lifecycle events out to subscribers
// through a buffered channel and a small worker pool. Delivery is
// at-most-once and asynchronous: a failing handler is logged and skipped,
// never retried, so publishers on the materialization path are not slowed
// down by observers. With a single worker, dispatch order matches publish
// order.
type ChannelEventBus struct {
	mu       sync.RWMutex
	byType   map[EventType]map[string]EventHandler
	catchAll map[string]EventHandler
	closed   bool

	queue chan queuedEvent
	done  chan struct{}
	wg    sync.WaitGroup

	bufferSize  int
	workerCount int
	logger      *slog.Logger
}

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// ChannelEventBusOption configures the bus.
type ChannelEventBusOption func(*ChannelEventBus)

// WithBufferSize sets how many events may queue before Publish blocks.
func WithBufferSize(size int) ChannelEventBusOption {
	return func(eb *ChannelEventBus) {
		eb.bufferSize = size
	}
}

// WithWorkerCount sets the number of dispatch workers. One worker preserves
// publish order across events.
func WithWorkerCount(count int) ChannelEventBusOption {
	return func(eb *ChannelEventBus) {
		eb.workerCount = count
	}
}

// NewChannelEventBus builds and starts a bus.
func NewChannelEventBus(options ...ChannelEventBusOption) *ChannelEventBus {
	eb := &ChannelEventBus{
		byType:      make(map[EventType]map[string]EventHandler),
		catchAll:    make(map[string]EventHandler),
		done:        make(chan struct{}),
		bufferSize:  100,
		workerCount: 5,
		logger:      logging.New("eventbus"),
	}
	for _, option := range options {
		option(eb)
	}
	eb.queue = make(chan queuedEvent, eb.bufferSize)

	for i := 0; i < eb.workerCount; i++ {
		eb.wg.Add(1)
		go eb.dispatchLoop()
	}
	return eb
}

func (eb *ChannelEventBus) dispatchLoop() {
	defer eb.wg.Done()
	for {
		select {
		case <-eb.done:
			return
		case qe := <-eb.queue:
			eb.dispatch(qe)
		}
	}
}

func (eb *ChannelEventBus) dispatch(qe queuedEvent) {
	if qe.ctx.Err() != nil {
		return
	}

	// Snapshot the handlers so a subscriber may subscribe or unsubscribe
	// from inside its own callback without deadlocking.
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.byType[qe.event.Type()])+len(eb.catchAll))
	for _, h := range eb.byType[qe.event.Type()] {
		handlers = append(handlers, h)
	}
	for _, h := range eb.catchAll {
		handlers = append(handlers, h)
	}
	eb.mu.RUnlock()

	for _, handler := range handlers {
		if qe.ctx.Err() != nil {
			return
		}
		if err := handler(qe.ctx, qe.event); err != nil {
			eb.logger.Warn("event handler failed",
				"event_type", string(qe.event.Type()), "error", err)
		}
	}
}

// Publish queues an event for asynchronous dispatch. A cancelled context
// either rejects the event here or drops it at dispatch time; subscribers
// never observe it.
func (eb *ChannelEventBus) Publish(ctx context.Context, event Event) error {
	if eb.isClosed() {
		return fmt.Errorf("event bus is closed")
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-ctx.Done():
		case <-eb.done:
		}
		cancel()
	}()

	select {
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	case eb.queue <- queuedEvent{ctx: dispatchCtx, event: event}:
		return nil
	}
}

// Subscribe registers a handler for the given event types and returns the
// subscription ID.
func (eb *ChannelEventBus) Subscribe(eventTypes []EventType, handler EventHandler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("handler cannot be nil")
	}
	if len(eventTypes) == 0 {
		return "", fmt.Errorf("at least one event type is required")
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return "", fmt.Errorf("event bus is closed")
	}

	id := uuid.New().String()
	for _, eventType := range eventTypes {
		if eb.byType[eventType] == nil {
			eb.byType[eventType] = make(map[string]EventHandler)
		}
		eb.byType[eventType][id] = handler
	}
	return id, nil
}

// SubscribeAll registers a handler for every event type.
func (eb *ChannelEventBus) SubscribeAll(handler EventHandler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("handler cannot be nil")
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return "", fmt.Errorf("event bus is closed")
	}

	id := uuid.New().String()
	eb.catchAll[id] = handler
	return id, nil
}

// Unsubscribe drops a subscription. Unknown IDs are a no-op.
func (eb *ChannelEventBus) Unsubscribe(subscriptionID string) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	delete(eb.catchAll, subscriptionID)
	for _, handlers := range eb.byType {
		delete(handlers, subscriptionID)
	}
	return nil
}

// Close stops the workers and waits for in-flight dispatch to finish.
// Queued but undispatched events are discarded.
func (eb *ChannelEventBus) Close() error {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return nil
	}
	eb.closed = true
	eb.mu.Unlock()

	close(eb.done)
	eb.wg.Wait()
	return nil
}

func (eb *ChannelEventBus) isClosed() bool {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.closed
}
