package eventbus

import (
	"log"
	"runtime/debug"
	"sync"
	"time"

	"folio/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventPageChanged       = domain.EventPageChanged
	EventPageDominant      = domain.EventPageDominant
	EventVisibilityChanged = domain.EventVisibilityChanged
	EventRenderComplete    = domain.EventRenderComplete
	EventScrollFailed      = domain.EventScrollFailed
	EventFileLoaded        = domain.EventFileLoaded
	EventFileUnloaded      = domain.EventFileUnloaded
	EventFileChanging      = domain.EventFileChanging
	EventFileDiscovered    = domain.EventFileDiscovered
	EventScanCompleted     = domain.EventScanCompleted
	EventError             = domain.EventError
)

// Re-export domain event types
type PageChangedEvent = domain.PageChangedEvent
type PageDominantEvent = domain.PageDominantEvent
type VisibilityChangedEvent = domain.VisibilityChangedEvent
type RenderCompleteEvent = domain.RenderCompleteEvent
type ScrollFailedEvent = domain.ScrollFailedEvent
type FileLoadedEvent = domain.FileLoadedEvent
type FileUnloadedEvent = domain.FileUnloadedEvent
type FileChangingEvent = domain.FileChangingEvent
type FileDiscoveredEvent = domain.FileDiscoveredEvent
type ScanCompletedEvent = domain.ScanCompletedEvent
type ErrorEvent = domain.ErrorEvent

// DefaultThrottleWindow is the coalescing window for events that share an
// originating source
const DefaultThrottleWindow = 10 * time.Millisecond

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	SetManualMode(enabled bool)
}

type handlerEntry struct {
	id int
	fn EventHandler
}

// bus is the concrete implementation of EventBus. Dispatch is synchronous:
// handlers run on the publisher's goroutine, which is what makes the
// re-entrancy guard and the throttling window observable at all.
type bus struct {
	mu       sync.Mutex
	handlers map[EventType][]handlerEntry
	nextID   int

	window       time.Duration
	lastDispatch map[string]time.Time
	pending      map[string]DomainEvent
	timers       map[string]*time.Timer

	// sources whose events are currently being dispatched; a publish from
	// inside a handler for the same source is dropped to prevent feedback
	// loops between producer and consumer of the same event
	active map[string]bool

	manual bool
}

// New creates a new event bus with the default throttle window
func New() EventBus {
	return NewWithThrottle(DefaultThrottleWindow)
}

// NewWithThrottle creates a new event bus with a custom coalescing window.
// A zero window disables throttling entirely.
func NewWithThrottle(window time.Duration) EventBus {
	return &bus{
		handlers:     make(map[EventType][]handlerEntry),
		window:       window,
		lastDispatch: make(map[string]time.Time),
		pending:      make(map[string]DomainEvent),
		timers:       make(map[string]*time.Timer),
		active:       make(map[string]bool),
	}
}

// SetManualMode toggles global suppression of automatic broadcasts. While
// enabled, published events are dropped; an orchestrator batching many state
// changes is expected to notify listeners itself once done.
func (b *bus) SetManualMode(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.manual = enabled
	if enabled {
		// Drop anything waiting in the coalescing window too
		for key, timer := range b.timers {
			timer.Stop()
			delete(b.timers, key)
			delete(b.pending, key)
		}
	}
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	b.mu.Lock()

	if b.manual {
		b.mu.Unlock()
		return
	}

	key := throttleKey(event)
	if key == "" || b.window <= 0 {
		b.mu.Unlock()
		b.dispatch(event, key)
		return
	}

	if b.active[key] {
		// Re-entrant publish from this source's own handler chain
		b.mu.Unlock()
		log.Printf("EventBus: suppressing re-entrant %s from %q", event.Type(), key)
		return
	}

	now := time.Now()
	if now.Sub(b.lastDispatch[key]) < b.window {
		// Within the window: coalesce, keeping only the latest event, and
		// flush it once the window closes
		b.pending[key] = event
		if _, ok := b.timers[key]; !ok {
			wait := b.window - now.Sub(b.lastDispatch[key])
			b.timers[key] = time.AfterFunc(wait, func() { b.flush(key) })
		}
		b.mu.Unlock()
		return
	}

	b.lastDispatch[key] = now
	b.mu.Unlock()
	b.dispatch(event, key)
}

// flush dispatches the coalesced trailing event for a source
func (b *bus) flush(key string) {
	b.mu.Lock()
	event, ok := b.pending[key]
	delete(b.pending, key)
	delete(b.timers, key)
	if ok {
		b.lastDispatch[key] = time.Now()
	}
	b.mu.Unlock()

	if ok {
		b.dispatch(event, key)
	}
}

// dispatch calls every handler registered for the event's type. The source
// is marked active for the duration so it cannot re-trigger itself.
func (b *bus) dispatch(event DomainEvent, key string) {
	b.mu.Lock()
	entries := b.handlers[event.Type()]
	handlersCopy := make([]handlerEntry, len(entries))
	copy(handlersCopy, entries)
	if key != "" {
		b.active[key] = true
	}
	b.mu.Unlock()

	defer func() {
		if key != "" {
			b.mu.Lock()
			delete(b.active, key)
			b.mu.Unlock()
		}
	}()

	for _, entry := range handlersCopy {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("EventBus: handler panic for %s: %v\nStack: %s", event.Type(), r, debug.Stack())
				}
			}()
			entry.fn(event)
		}()
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], handlerEntry{id: id, fn: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		entries := b.handlers[eventType]
		for i, e := range entries {
			if e.id == id {
				b.handlers[eventType] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
	}
}

// throttleKey derives the coalescing key for an event. Only events that
// declare a source participate in throttling and re-entrancy guarding.
func throttleKey(event DomainEvent) string {
	if s, ok := event.(domain.SourcedEvent); ok && s.Source() != "" {
		return s.Source() + "/" + string(event.Type())
	}
	return ""
}
