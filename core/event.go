package core

import "time"

// EventType enumerates the closed set of task lifecycle event variants.
// The taskstore reducer matches exhaustively over this set; adding a variant
// requires extending its transition table.
type EventType string

const (
	// EventQueued marks acceptance of a task into the system, carrying its
	// queue position. It is the only variant that implicitly creates a task
	// projection on the consumer side.
	EventQueued EventType = "queued"
	// EventStarted marks the beginning of agent execution.
	EventStarted EventType = "started"
	// EventProgress carries a coarse progress update (percent plus optional
	// message/detail).
	EventProgress EventType = "progress"
	// EventStream carries one raw incremental payload chunk (a model token).
	// Stores do not accumulate tokens; accumulation is a UI-layer concern.
	EventStream EventType = "stream"
	// EventCompleted is the success terminal, carrying the result and the
	// run duration.
	EventCompleted EventType = "completed"
	// EventError is the failure terminal, carrying a human-readable message.
	EventError EventType = "error"
	// EventCancelled is the terminal for an acknowledged cooperative
	// cancellation. It carries no message; cancellation is not an error.
	EventCancelled EventType = "cancelled"
	// EventPriorityChanged updates priority and queue position of a task
	// that is still queued.
	EventPriorityChanged EventType = "priority-changed"
	// EventQueuePosition updates the queue position of a task that is still
	// queued.
	EventQueuePosition EventType = "queue-position"
)

// TaskEvent is the immutable unit of transport between the producer side
// (runner) and observing task stores. Every event carries the identifying
// task key, its variant and a UTC timestamp; the remaining fields are
// variant-specific and zero for other variants. For a given key events are
// delivered in causal order (queued <= started <= progress/stream* <= one
// terminal); a consumer must tolerate duplicate terminals (last one wins)
// without corrupting state.
type TaskEvent struct {
	TaskID     string    `json:"task_id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Position   *int      `json:"position,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	Percent    float64   `json:"percent,omitempty"`
	Message    string    `json:"message,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Token      string    `json:"token,omitempty"`
	Result     any       `json:"result,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewTaskEvent creates a bare event of the given variant keyed to a task.
// Prefer the variant-specific constructors below.
func NewTaskEvent(taskID string, typ EventType) TaskEvent {
	return TaskEvent{
		TaskID:    taskID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueuedEvent announces acceptance of a task at the given queue position.
func NewQueuedEvent(taskID string, position int) TaskEvent {
	e := NewTaskEvent(taskID, EventQueued)
	e.Position = &position
	return e
}

// NewStartedEvent announces the beginning of agent execution.
func NewStartedEvent(taskID string) TaskEvent {
	return NewTaskEvent(taskID, EventStarted)
}

// NewProgressEvent reports coarse progress. Message and detail may be empty.
func NewProgressEvent(taskID string, percent float64, message, detail string) TaskEvent {
	e := NewTaskEvent(taskID, EventProgress)
	e.Percent = percent
	e.Message = message
	e.Detail = detail
	return e
}

// NewStreamEvent carries one incremental payload chunk.
func NewStreamEvent(taskID, token string) TaskEvent {
	e := NewTaskEvent(taskID, EventStream)
	e.Token = token
	return e
}

// NewCompletedEvent is the success terminal carrying the run result.
func NewCompletedEvent(taskID string, result any, duration time.Duration) TaskEvent {
	e := NewTaskEvent(taskID, EventCompleted)
	e.Result = result
	e.DurationMs = duration.Milliseconds()
	return e
}

// NewErrorEvent is the failure terminal carrying a human-readable message.
func NewErrorEvent(taskID, message string) TaskEvent {
	e := NewTaskEvent(taskID, EventError)
	e.Error = message
	return e
}

// NewCancelledEvent is the terminal for an acknowledged cancellation.
func NewCancelledEvent(taskID string) TaskEvent {
	return NewTaskEvent(taskID, EventCancelled)
}

// NewPriorityChangedEvent updates priority and queue position of a queued task.
func NewPriorityChangedEvent(taskID, priority string, position int) TaskEvent {
	e := NewTaskEvent(taskID, EventPriorityChanged)
	e.Priority = priority
	e.Position = &position
	return e
}

// NewQueuePositionEvent updates the queue position of a queued task.
func NewQueuePositionEvent(taskID string, position int) TaskEvent {
	e := NewTaskEvent(taskID, EventQueuePosition)
	e.Position = &position
	return e
}

// IsTerminal reports whether the event ends a task's lifecycle.
func (e TaskEvent) IsTerminal() bool {
	switch e.Type {
	case EventCompleted, EventError, EventCancelled:
		return true
	default:
		return false
	}
}
