// Package inkfold provides a high-level façade over the task execution core
// (registry, run coordinator, event hub and task projection) enabling rapid
// construction of background-task pipelines for writing tools. Most
// applications interact with this package by:
//  1. Creating an Inkfold via New() (optionally overriding defaults)
//  2. Registering one or more agents (chat, func, custom)
//  3. Submitting work asynchronously (Submit) or synchronously (SubmitSync)
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger and a
// Prometheus registerer.
package inkfold

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/engine"
	"github.com/inkfold/inkfold/hub"
	"github.com/inkfold/inkfold/internal/util"
	"github.com/inkfold/inkfold/logging"
	"github.com/inkfold/inkfold/runner"
	"github.com/inkfold/inkfold/taskstore"
)

// Options configures the Inkfold instance.
type Options struct {
	// EngineConfig tunes concurrency, buffering and history retention.
	EngineConfig engine.Config

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Registerer receives runtime metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// Inkfold is the high-level façade aggregating the underlying engine.
type Inkfold struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new Inkfold instance with optional overrides.
func New(optFns ...func(o *Options)) *Inkfold {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Logger = opts.Logger
		o.Registerer = opts.Registerer
	})

	return &Inkfold{opts: opts, engine: e}
}

// RegisterAgent adds an agent to the underlying registry.
func (f *Inkfold) RegisterAgent(a core.Agent) error { return f.engine.Register(a) }

// Submit starts an asynchronous task and returns its id.
func (f *Inkfold) Submit(ctx context.Context, req engine.SubmitRequest) (string, error) {
	return f.engine.Submit(ctx, req)
}

// SubmitSync is a synchronous helper: it submits the task targeted at a
// private observer, drains its event stream until the terminal event and
// returns the task id plus every received event. The terminal event's error
// field, if set, is surfaced as the returned error.
func (f *Inkfold) SubmitSync(ctx context.Context, req engine.SubmitRequest) (string, []core.TaskEvent, error) {
	obs := hub.NewChannelObserver("sync-"+util.NewID(), f.opts.EngineConfig.EventBufferSize)
	if err := f.engine.AttachObserver(obs); err != nil {
		return "", nil, err
	}
	defer f.engine.DetachObserver(obs.ID())

	req.Observer = obs.ID()
	taskID, err := f.engine.Submit(ctx, req)
	if err != nil {
		return "", nil, err
	}

	var events []core.TaskEvent
	for {
		select {
		case <-ctx.Done():
			f.engine.Cancel(taskID)
			return taskID, events, ctx.Err()

		case ev := <-obs.Events():
			if ev.TaskID != taskID {
				continue
			}
			events = append(events, ev)
			if !ev.IsTerminal() {
				continue
			}
			if ev.Type == core.EventError {
				return taskID, events, fmt.Errorf("task %s failed: %s", taskID, ev.Error)
			}
			return taskID, events, nil
		}
	}
}

// Cancel signals cooperative cancellation of an active task.
func (f *Inkfold) Cancel(taskID string) bool { return f.engine.Cancel(taskID) }

// AttachObserver connects an observer to the lifecycle event stream.
func (f *Inkfold) AttachObserver(obs hub.Observer) error { return f.engine.AttachObserver(obs) }

// DetachObserver disconnects an observer.
func (f *Inkfold) DetachObserver(observerID string) bool { return f.engine.DetachObserver(observerID) }

// ActiveTasks returns a snapshot of currently running tasks.
func (f *Inkfold) ActiveTasks() []runner.Run { return f.engine.List() }

// Agents returns registered agent names in registration order.
func (f *Inkfold) Agents() []string { return f.engine.Agents() }

// Task returns the engine-side projection of one task.
func (f *Inkfold) Task(taskID string) (taskstore.TrackedTask, bool) { return f.engine.Task(taskID) }

// TaskSnapshots returns the engine-side projection of every known task.
func (f *Inkfold) TaskSnapshots() []taskstore.TrackedTask { return f.engine.TaskSnapshots() }

// Close cancels all active runs and shuts down event delivery.
func (f *Inkfold) Close() { f.engine.Close() }
