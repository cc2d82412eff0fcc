package search

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType classifies a vault filesystem event
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventDelete
)

// Editors save in bursts; 150ms coalesces them without noticeable lag.
const defaultDebounceDelay = 150 * time.Millisecond

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// debouncer coalesces rapid filesystem events per path. Create and write
// events wait out the delay; deletes are processed immediately.
type debouncer struct {
	pending   map[string]*pendingEvent
	mu        sync.Mutex
	delay     time.Duration
	onProcess func(path string, eventType EventType)
	stopping  atomic.Bool
}

type pendingEvent struct {
	path      string
	timer     *time.Timer
	eventType EventType
}

func newDebouncer(delay time.Duration, onProcess func(path string, eventType EventType)) *debouncer {
	return &debouncer{
		pending:   make(map[string]*pendingEvent),
		delay:     delay,
		onProcess: onProcess,
	}
}

// Queue adds an event. New events for the same path reset the timer.
// Returns false if the debouncer is stopping.
func (d *debouncer) Queue(path string, eventType EventType) bool {
	if d.stopping.Load() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopping.Load() {
		return false
	}

	if eventType == EventDelete {
		if p, ok := d.pending[path]; ok {
			p.timer.Stop()
			delete(d.pending, path)
		}
		go d.onProcess(path, EventDelete)
		return true
	}

	if p, ok := d.pending[path]; ok {
		// Reset returning false means the timer already fired and the
		// entry may be gone; requeue as a fresh event.
		if !p.timer.Reset(d.delay) {
			timer := time.AfterFunc(d.delay, func() {
				d.onTimer(path)
			})
			d.pending[path] = &pendingEvent{
				path:      path,
				timer:     timer,
				eventType: eventType,
			}
		} else if eventType == EventCreate {
			// Create outranks write when events coalesce
			p.eventType = EventCreate
		}
		return true
	}

	timer := time.AfterFunc(d.delay, func() {
		d.onTimer(path)
	})
	d.pending[path] = &pendingEvent{
		path:      path,
		timer:     timer,
		eventType: eventType,
	}
	return true
}

func (d *debouncer) onTimer(path string) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if ok {
		delete(d.pending, path)
	}
	d.mu.Unlock()

	if ok {
		d.onProcess(path, p.eventType)
	}
}

// Stop cancels all pending events and rejects new ones
func (d *debouncer) Stop() {
	d.stopping.Store(true)

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.pending {
		p.timer.Stop()
	}
	d.pending = make(map[string]*pendingEvent)
}

// PendingCount returns the number of queued events (for testing)
func (d *debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
