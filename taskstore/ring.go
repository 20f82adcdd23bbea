package taskstore

import "github.com/inkfold/inkfold/core"

// eventRing is a fixed-capacity event history. Once full, pushing overwrites
// the oldest entry.
type eventRing struct {
	buf  []core.TaskEvent
	head int
	n    int
}

func newEventRing(capacity int) *eventRing {
	return &eventRing{buf: make([]core.TaskEvent, capacity)}
}

func (r *eventRing) push(ev core.TaskEvent) {
	if len(r.buf) == 0 {
		return
	}

	r.buf[(r.head+r.n)%len(r.buf)] = ev
	if r.n < len(r.buf) {
		r.n++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

// events returns the retained history oldest first.
func (r *eventRing) events() []core.TaskEvent {
	out := make([]core.TaskEvent, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *eventRing) len() int { return r.n }
