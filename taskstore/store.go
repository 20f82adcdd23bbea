package taskstore

import (
	"sort"
	"sync"

	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/logging"
)

// DefaultHistoryCapacity bounds the per-task raw event ring unless
// overridden via Options.
const DefaultHistoryCapacity = 50

// DefaultPriority is assigned when neither the caller nor an event names one.
const DefaultPriority = "normal"

// Status is the projected lifecycle state of a tracked task.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions under
// normal delivery.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// Progress is the latest reported progress of a running task.
type Progress struct {
	Percent float64 `json:"percent"`
	Message string  `json:"message,omitempty"`
	Detail  string  `json:"detail,omitempty"`
}

// TrackedTask is a point-in-time snapshot of one projected task. Stream
// tokens are not accumulated here; token assembly is a UI concern.
type TrackedTask struct {
	TaskID        string           `json:"task_id"`
	Type          string           `json:"type,omitempty"`
	Status        Status           `json:"status"`
	Priority      string           `json:"priority"`
	Progress      Progress         `json:"progress"`
	QueuePosition *int             `json:"queue_position,omitempty"`
	DurationMs    int64            `json:"duration_ms,omitempty"`
	Error         string           `json:"error,omitempty"`
	Result        any              `json:"result,omitempty"`
	Events        []core.TaskEvent `json:"events,omitempty"`
}

// trackedState is the store-internal mutable record behind each snapshot.
type trackedState struct {
	task TrackedTask
	ring *eventRing
	subs map[int]func(TrackedTask)
}

// Options holds configuration overrides passed to New().
type Options struct {
	// HistoryCapacity bounds each task's raw event ring.
	HistoryCapacity int
	// Logger receives projection diagnostics (dropped events, removals).
	Logger logging.Logger
}

// Store is the event-sourced task projection. ApplyEvent is the sole
// mutation entry point besides TaskAdded and TaskRemoved; all reads return
// independent snapshot copies. Safe for concurrent use: event application is
// serialized by the store's mutex, reads take snapshots under it.
type Store struct {
	historyCap int
	logger     logging.Logger

	mu      sync.RWMutex
	tasks   map[string]*trackedState
	pending map[string]map[int]func(TrackedTask)
	nextSub int
}

// New constructs an empty Store.
func New(optFns ...func(o *Options)) *Store {
	opts := Options{
		HistoryCapacity: DefaultHistoryCapacity,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HistoryCapacity < 0 {
		opts.HistoryCapacity = 0
	}

	return &Store{
		historyCap: opts.HistoryCapacity,
		logger:     opts.Logger,
		tasks:      make(map[string]*trackedState),
		pending:    make(map[string]map[int]func(TrackedTask)),
	}
}

// TaskAdded creates a projection for the key with status queued. Idempotent:
// a no-op when the key already exists, so the explicit registration and the
// producer's queued event may race in either order and converge.
func (s *Store) TaskAdded(taskID, taskType, priority string) {
	if priority == "" {
		priority = DefaultPriority
	}

	s.mu.Lock()
	if _, exists := s.tasks[taskID]; exists {
		s.mu.Unlock()
		return
	}
	s.tasks[taskID] = &trackedState{
		task: TrackedTask{
			TaskID:   taskID,
			Type:     taskType,
			Status:   StatusQueued,
			Priority: priority,
		},
		ring: newEventRing(s.historyCap),
		subs: s.takePendingLocked(taskID),
	}
	s.mu.Unlock()
}

// ApplyEvent folds one lifecycle event into the projection. An unknown key
// is auto-created when the event is queued; for any other variant the event
// is dropped, it belongs to a run this store was never told to track. Known
// keys append the raw event to the ring and apply the transition table.
func (s *Store) ApplyEvent(ev core.TaskEvent) {
	s.mu.Lock()

	st, ok := s.tasks[ev.TaskID]
	if !ok {
		if ev.Type != core.EventQueued {
			s.mu.Unlock()
			s.logger.Debug("taskstore.event.dropped task_id=%s type=%s", ev.TaskID, ev.Type)
			return
		}
		priority := ev.Priority
		if priority == "" {
			priority = DefaultPriority
		}
		st = &trackedState{
			task: TrackedTask{
				TaskID:   ev.TaskID,
				Status:   StatusQueued,
				Priority: priority,
			},
			ring: newEventRing(s.historyCap),
			subs: s.takePendingLocked(ev.TaskID),
		}
		s.tasks[ev.TaskID] = st
	}

	st.ring.push(ev)
	s.reduce(&st.task, ev)

	snap := s.snapshotLocked(st)
	subs := make([]func(TrackedTask), 0, len(st.subs))
	for _, fn := range st.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// reduce applies the per-variant transition table. Progress and stream imply
// running so fast-path producers may omit an explicit started event.
// Priority and queue-position mutations are valid only while queued. On a
// terminal the last write wins; delivery anomalies are absorbed rather than
// rejected.
func (s *Store) reduce(t *TrackedTask, ev core.TaskEvent) {
	switch ev.Type {
	case core.EventQueued:
		t.Status = StatusQueued
		t.QueuePosition = ev.Position
		if ev.Priority != "" {
			t.Priority = ev.Priority
		}
	case core.EventStarted:
		t.Status = StatusRunning
		t.QueuePosition = nil
	case core.EventProgress:
		if t.Status == StatusQueued {
			t.Status = StatusRunning
			t.QueuePosition = nil
		}
		t.Progress = Progress{Percent: ev.Percent, Message: ev.Message, Detail: ev.Detail}
	case core.EventStream:
		if t.Status == StatusQueued {
			t.Status = StatusRunning
			t.QueuePosition = nil
		}
	case core.EventCompleted:
		t.Status = StatusCompleted
		t.Result = ev.Result
		t.DurationMs = ev.DurationMs
		t.QueuePosition = nil
	case core.EventError:
		t.Status = StatusError
		t.Error = ev.Error
		t.QueuePosition = nil
	case core.EventCancelled:
		t.Status = StatusCancelled
		t.QueuePosition = nil
	case core.EventPriorityChanged:
		if t.Status == StatusQueued {
			t.Priority = ev.Priority
			t.QueuePosition = ev.Position
		}
	case core.EventQueuePosition:
		if t.Status == StatusQueued {
			t.QueuePosition = ev.Position
		}
	}
}

// TaskRemoved deletes the projection entirely and reports whether it
// existed. Intended for UI-driven dismissal of finished tasks.
func (s *Store) TaskRemoved(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return false
	}
	delete(s.tasks, taskID)

	return true
}

// Task returns the snapshot for one key.
func (s *Store) Task(taskID string) (TrackedTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.tasks[taskID]
	if !ok {
		return TrackedTask{}, false
	}

	return s.snapshotLocked(st), true
}

// Tasks returns snapshots of every tracked task ordered by task id.
func (s *Store) Tasks() []TrackedTask {
	s.mu.RLock()
	out := make([]TrackedTask, 0, len(s.tasks))
	for _, st := range s.tasks {
		out = append(out, s.snapshotLocked(st))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })

	return out
}

// TasksByStatus returns snapshots of tasks in the given status, ordered by
// task id.
func (s *Store) TasksByStatus(status Status) []TrackedTask {
	s.mu.RLock()
	var out []TrackedTask
	for _, st := range s.tasks {
		if st.task.Status == status {
			out = append(out, s.snapshotLocked(st))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })

	return out
}

// Stats counts tracked tasks per status bucket.
func (s *Store) Stats() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[Status]int)
	for _, st := range s.tasks {
		stats[st.task.Status]++
	}

	return stats
}

// Len returns the number of tracked tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Subscribe registers fn to receive a fresh snapshot after every event
// applied to the key, and returns the corresponding unsubscribe function.
// Callbacks run on the ApplyEvent caller's goroutine after the store lock is
// released. Subscribing to a key that does not exist yet is allowed;
// callbacks begin once the key is created.
func (s *Store) Subscribe(taskID string, fn func(TrackedTask)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++

	if st, ok := s.tasks[taskID]; ok {
		st.subs[id] = fn
	} else {
		if s.pending[taskID] == nil {
			s.pending[taskID] = make(map[int]func(TrackedTask))
		}
		s.pending[taskID][id] = fn
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if st, ok := s.tasks[taskID]; ok {
			delete(st.subs, id)
		}
		if subs, ok := s.pending[taskID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(s.pending, taskID)
			}
		}
	}
}

// takePendingLocked claims subscribers registered before the key existed.
func (s *Store) takePendingLocked(taskID string) map[int]func(TrackedTask) {
	if subs, ok := s.pending[taskID]; ok {
		delete(s.pending, taskID)
		return subs
	}
	return make(map[int]func(TrackedTask))
}

// snapshotLocked copies the task plus its ring contents. The queue position
// pointer is duplicated so callers cannot alias store state.
func (s *Store) snapshotLocked(st *trackedState) TrackedTask {
	snap := st.task
	if st.task.QueuePosition != nil {
		pos := *st.task.QueuePosition
		snap.QueuePosition = &pos
	}
	snap.Events = st.ring.events()
	return snap
}
