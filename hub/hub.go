package hub

import (
	"errors"
	"fmt"
	"sync"

	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/logging"
)

// ErrObserverExists is returned when attaching an observer id that is already in use.
var ErrObserverExists = errors.New("observer already attached")

// ErrHubClosed is returned when attaching to a closed hub.
var ErrHubClosed = errors.New("hub closed")

// Observer receives events from the hub. Notify is invoked from a single
// goroutine per observer, in dispatch order; implementations may block
// without affecting the producer or other observers.
type Observer interface {
	ID() string
	Notify(channel string, ev core.TaskEvent)
}

// Options holds configuration overrides passed to New().
type Options struct {
	// QueueSize sets the per-observer delivery buffer. When an observer's
	// queue is full further events for it are dropped, never the producer
	// blocked.
	QueueSize int
	// Logger receives drop and lifecycle diagnostics.
	Logger logging.Logger
}

// Hub fans events out to zero, one or many attached observers. It implements
// core.EventSink. All methods are safe for concurrent use.
type Hub struct {
	queueSize int
	logger    logging.Logger

	mu     sync.RWMutex
	subs   map[string]*subscriber
	closed bool
}

type envelope struct {
	channel string
	event   core.TaskEvent
}

type subscriber struct {
	obs   Observer
	queue chan envelope
	done  chan struct{}
}

// New constructs a Hub with optional overrides.
func New(optFns ...func(o *Options)) *Hub {
	opts := Options{
		QueueSize: 256,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Hub{
		queueSize: opts.QueueSize,
		logger:    opts.Logger,
		subs:      make(map[string]*subscriber),
	}
}

// Attach registers an observer and starts its delivery goroutine. The id
// must be unique among currently attached observers.
func (h *Hub) Attach(obs Observer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	id := obs.ID()
	if _, exists := h.subs[id]; exists {
		return fmt.Errorf("observer %q: %w", id, ErrObserverExists)
	}

	sub := &subscriber{
		obs:   obs,
		queue: make(chan envelope, h.queueSize),
		done:  make(chan struct{}),
	}
	h.subs[id] = sub

	go sub.deliver()

	h.logger.Debug("hub.observer.attached id=%s", id)

	return nil
}

// Detach removes an observer and stops its delivery goroutine. Events still
// sitting in its queue are discarded. Returns false if the id is unknown.
func (h *Hub) Detach(id string) bool {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}

	close(sub.done)
	h.logger.Debug("hub.observer.detached id=%s", id)

	return true
}

// Broadcast delivers the event to every currently attached observer.
func (h *Hub) Broadcast(channel string, ev core.TaskEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subs {
		h.enqueue(id, sub, channel, ev)
	}
}

// SendTo delivers the event to exactly one observer. It reports whether an
// observer with that id was attached at dispatch time.
func (h *Hub) SendTo(observerID, channel string, ev core.TaskEvent) bool {
	h.mu.RLock()
	sub, ok := h.subs[observerID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	h.enqueue(observerID, sub, channel, ev)

	return true
}

// Observers returns the ids of all currently attached observers.
func (h *Hub) Observers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	return ids
}

// Close detaches every observer and rejects further attachments.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*subscriber)
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		close(sub.done)
	}
}

// enqueue performs the non-blocking handoff into the observer's queue. A
// full queue drops the event; the producer is never blocked.
func (h *Hub) enqueue(id string, sub *subscriber, channel string, ev core.TaskEvent) {
	select {
	case sub.queue <- envelope{channel: channel, event: ev}:
	default:
		h.logger.Warn("hub.event.dropped observer=%s channel=%s task_id=%s type=%s", id, channel, ev.TaskID, ev.Type)
	}
}

// deliver drains the subscriber queue until the observer is detached.
func (s *subscriber) deliver() {
	for {
		select {
		case <-s.done:
			return
		case env := <-s.queue:
			s.obs.Notify(env.channel, env.event)
		}
	}
}
