package hub

import "github.com/inkfold/inkfold/core"

// ChannelObserver exposes received events as a Go channel. It is the
// in-process binding used by local UI surfaces and tests; remote surfaces
// use WebSocketObserver instead.
type ChannelObserver struct {
	id string
	ch chan core.TaskEvent
}

// NewChannelObserver constructs an observer buffering up to size events.
func NewChannelObserver(id string, size int) *ChannelObserver {
	if size <= 0 {
		size = 64
	}
	return &ChannelObserver{id: id, ch: make(chan core.TaskEvent, size)}
}

// ID returns the observer id used for addressed delivery.
func (o *ChannelObserver) ID() string { return o.id }

// Notify implements Observer. A full channel drops the event so the hub's
// delivery goroutine can never wedge on an abandoned consumer.
func (o *ChannelObserver) Notify(_ string, ev core.TaskEvent) {
	select {
	case o.ch <- ev:
	default:
	}
}

// Events returns the receive side of the observer's channel.
func (o *ChannelObserver) Events() <-chan core.TaskEvent { return o.ch }
