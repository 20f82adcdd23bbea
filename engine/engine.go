package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/hub"
	"github.com/inkfold/inkfold/internal/util"
	"github.com/inkfold/inkfold/logging"
	"github.com/inkfold/inkfold/registry"
	"github.com/inkfold/inkfold/runner"
	"github.com/inkfold/inkfold/taskstore"
)

// ErrCapacityExceeded is returned by Submit when the admission cap is
// reached. The task is rejected synchronously; no events are emitted for it.
var ErrCapacityExceeded = errors.New("max concurrent tasks reached")

// Config defines tuning parameters for the Engine's operational behavior.
type Config struct {
	// MaxConcurrentTasks caps simultaneously executing tasks. Submissions
	// above the cap are rejected with ErrCapacityExceeded. 0 means unlimited.
	MaxConcurrentTasks int

	// EventBufferSize sets channel buffering between agents and the
	// coordinator's drain loop.
	EventBufferSize int

	// HistoryCapacity bounds the per-task raw event ring in the engine's
	// projection.
	HistoryCapacity int

	// ObserverQueueSize bounds each observer's delivery queue in the hub.
	ObserverQueueSize int
}

// DefaultConfig provides production-ready default configuration values.
var DefaultConfig = Config{
	MaxConcurrentTasks: 10,
	EventBufferSize:    100,
	HistoryCapacity:    taskstore.DefaultHistoryCapacity,
	ObserverQueueSize:  256,
}

// Options holds dependency overrides passed to New().
type Options struct {
	Config     Config
	Logger     logging.Logger
	Registerer prometheus.Registerer
}

// Engine is the top-level submission facade. Construct once, register
// agents, attach observers, submit work. Safe for concurrent use.
type Engine struct {
	cfg    Config
	logger logging.Logger

	registry *registry.Registry
	hub      *hub.Hub
	store    *taskstore.Store
	runner   *runner.Runner
	sem      *semaphore.Weighted

	closeOnce sync.Once
}

// New constructs a fully wired Engine.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Engine{
		cfg:      opts.Config,
		logger:   opts.Logger,
		registry: registry.New(),
	}

	e.hub = hub.New(func(o *hub.Options) {
		o.QueueSize = opts.Config.ObserverQueueSize
		o.Logger = opts.Logger
	})

	e.store = taskstore.New(func(o *taskstore.Options) {
		o.HistoryCapacity = opts.Config.HistoryCapacity
		o.Logger = opts.Logger
	})

	if opts.Config.MaxConcurrentTasks > 0 {
		e.sem = semaphore.NewWeighted(int64(opts.Config.MaxConcurrentTasks))
	}

	sink := &projectingSink{hub: e.hub, store: e.store}
	e.runner = runner.New(e.registry, sink, func(o *runner.Options) {
		o.EventBufferSize = opts.Config.EventBufferSize
		o.Logger = opts.Logger
		o.Registerer = opts.Registerer
		o.OnRunFinished = e.onRunFinished
	})

	return e
}

// Register adds an agent to the engine's registry.
func (e *Engine) Register(a core.Agent) error { return e.registry.Register(a) }

// SubmitRequest describes one unit of work.
type SubmitRequest struct {
	// Agent names the registered agent to invoke.
	Agent string
	// Input is handed to the agent unchanged.
	Input core.Input
	// Priority is a free-form label ("low", "normal", "high" by
	// convention). Defaults to "normal".
	Priority string
	// Observer restricts the task's event stream to one observer id.
	// Empty means broadcast.
	Observer string
}

// Submit admits one task and starts its run. The task id is returned
// synchronously; all further outcomes arrive as lifecycle events. Unknown
// agent names and capacity rejections are submission errors and never
// produce events.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.Agent == "" {
		return "", fmt.Errorf("agent name required")
	}

	if _, err := e.registry.Resolve(req.Agent); err != nil {
		return "", err
	}

	if e.sem != nil && !e.sem.TryAcquire(1) {
		return "", ErrCapacityExceeded
	}

	taskID := util.NewID()
	priority := req.Priority
	if priority == "" {
		priority = taskstore.DefaultPriority
	}

	e.store.TaskAdded(taskID, req.Input.Kind, priority)

	queued := core.NewQueuedEvent(taskID, 0)
	queued.Priority = priority
	e.deliver(req.Observer, queued)

	_, err := e.runner.Start(ctx, req.Agent, req.Input, func(o *runner.StartOptions) {
		o.RunID = taskID
		o.Observer = req.Observer
	})
	if err != nil {
		// The queued event is already out; converge observers to a terminal.
		e.deliver(req.Observer, core.NewErrorEvent(taskID, err.Error()))
		if e.sem != nil {
			e.sem.Release(1)
		}
		return "", err
	}

	e.logger.Debug("engine.task.submitted task_id=%s agent=%s priority=%s", taskID, req.Agent, priority)

	return taskID, nil
}

// Cancel signals cooperative cancellation of an active task.
func (e *Engine) Cancel(taskID string) bool { return e.runner.Cancel(taskID) }

// List returns a snapshot of active runs.
func (e *Engine) List() []runner.Run { return e.runner.ActiveRuns() }

// Agents returns registered agent names in registration order.
func (e *Engine) Agents() []string { return e.runner.Agents() }

// AttachObserver connects an observer to the event stream. Events emitted
// while detached are missed; use TaskSnapshots to seed state on attach.
func (e *Engine) AttachObserver(obs hub.Observer) error { return e.hub.Attach(obs) }

// DetachObserver disconnects an observer.
func (e *Engine) DetachObserver(observerID string) bool { return e.hub.Detach(observerID) }

// Task returns the engine-side projection of one task.
func (e *Engine) Task(taskID string) (taskstore.TrackedTask, bool) { return e.store.Task(taskID) }

// TaskSnapshots returns the engine-side projection of every known task.
func (e *Engine) TaskSnapshots() []taskstore.TrackedTask { return e.store.Tasks() }

// Stats counts known tasks per status bucket.
func (e *Engine) Stats() map[taskstore.Status]int { return e.store.Stats() }

// RemoveTask dismisses a finished task from the engine-side projection.
func (e *Engine) RemoveTask(taskID string) bool { return e.store.TaskRemoved(taskID) }

// Close cancels all active runs and shuts down event delivery.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.runner.Destroy()
		e.hub.Close()
	})
}

// onRunFinished frees the task's admission slot after its terminal event.
func (e *Engine) onRunFinished(run runner.Run, terminal core.EventType) {
	if e.sem != nil {
		e.sem.Release(1)
	}
	e.logger.Debug("engine.task.finished task_id=%s status=%s", run.RunID, terminal)
}

// deliver routes an engine-originated event by the same rule the runner
// applies to agent events.
func (e *Engine) deliver(observer string, ev core.TaskEvent) {
	e.store.ApplyEvent(ev)
	if observer != "" {
		e.hub.SendTo(observer, core.TaskEventChannel, ev)
		return
	}
	e.hub.Broadcast(core.TaskEventChannel, ev)
}

// projectingSink feeds the engine's own projection before fanning events out
// to observers, so TaskSnapshots always reflects everything delivered.
type projectingSink struct {
	hub   *hub.Hub
	store *taskstore.Store
}

func (s *projectingSink) Broadcast(channel string, ev core.TaskEvent) {
	s.store.ApplyEvent(ev)
	s.hub.Broadcast(channel, ev)
}

func (s *projectingSink) SendTo(observerID, channel string, ev core.TaskEvent) bool {
	s.store.ApplyEvent(ev)
	return s.hub.SendTo(observerID, channel, ev)
}
