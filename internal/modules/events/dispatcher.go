package events

import (
	"context"
	"sync"
	"time"

	"tourrental/internal/pkg/logger"
)

const publishTimeout = 5 * time.Second

// Sink delivers events to one downstream system.
type Sink interface {
	Name() string
	Publish(ctx context.Context, e Event) error
}

// Dispatcher queues events in memory and delivers them from a single worker.
// When the queue is full the event is dropped and logged; Emit never blocks.
type Dispatcher struct {
	queue  chan Event
	sinks  []Sink
	log    *logger.Logger
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(bufferSize int, log *logger.Logger, sinks ...Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Dispatcher{
		queue: make(chan Event, bufferSize),
		sinks: sinks,
		log:   log.With("service", "EventDispatcher"),
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for e := range d.queue {
			d.deliver(e)
		}
	}()
}

func (d *Dispatcher) Emit(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("event dropped: dispatcher closed", "event_type", e.Type, "event_id", e.ID)
		return
	}
	select {
	case d.queue <- e:
	default:
		d.log.Warn("event dropped: queue full", "event_type", e.Type, "event_id", e.ID)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) deliver(e Event) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := sink.Publish(ctx, e); err != nil {
			d.log.Warn("event delivery failed", "sink", sink.Name(), "event_type", e.Type, "event_id", e.ID, "error", err)
		}
		cancel()
	}
}
