package core

// TaskEventChannel is the logical channel name lifecycle events travel on.
const TaskEventChannel = "task:event"

// EventSink is the delivery boundary between the runner and attached
// observers. Both operations are synchronous-dispatch, asynchronous-delivery:
// the call returns immediately and slow or absent observers never block the
// producer. There is no queuing, retry or acknowledgement; an observer that
// is not attached at delivery time simply misses the event.
type EventSink interface {
	// Broadcast delivers the event to every currently attached observer.
	Broadcast(channel string, ev TaskEvent)

	// SendTo delivers the event to exactly one observer. It reports whether
	// an observer with that id was attached at dispatch time.
	SendTo(observerID, channel string, ev TaskEvent) bool
}
