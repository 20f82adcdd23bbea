package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/internal/util"
	"github.com/inkfold/inkfold/logging"
	"github.com/inkfold/inkfold/registry"
)

// ErrRunnerDestroyed is returned by Start after Destroy has been called.
var ErrRunnerDestroyed = errors.New("runner destroyed")

// Run is a point-in-time snapshot of an active run.
type Run struct {
	RunID     string    `json:"run_id"`
	AgentName string    `json:"agent_name"`
	StartedAt time.Time `json:"started_at"`
}

// activeRun is the coordinator-owned record of one executing run. The
// observer field captures the routing decision made at start; a run is
// either globally visible or privately visible for its entire lifetime.
type activeRun struct {
	agentName string
	startedAt time.Time
	cancel    context.CancelFunc
	observer  string
}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// EventBufferSize sets channel buffering between an agent and the
	// coordinator's drain loop.
	EventBufferSize int
	// Logger receives run lifecycle diagnostics.
	Logger logging.Logger
	// Registerer receives the coordinator's Prometheus collectors. Nil
	// leaves them unregistered.
	Registerer prometheus.Registerer
	// OnRunFinished is invoked after a run's terminal event has been
	// delivered. Used by the submission layer to release admission slots.
	OnRunFinished func(run Run, terminal core.EventType)
}

// StartOptions holds per-run overrides passed to Start().
type StartOptions struct {
	// RunID supplies the external task key for the run. Generated when empty.
	RunID string
	// Observer restricts event delivery to a single observer id. Empty
	// means broadcast to all.
	Observer string
}

// Runner coordinates agent execution: resolves agents, creates run contexts,
// drains agent event streams and routes lifecycle events to the event sink.
// Public methods are safe for concurrent use. Each run's generator is driven
// to completion independently; one run's cancellation or failure has no
// effect on others.
type Runner struct {
	registry *registry.Registry
	sink     core.EventSink

	bufSize  int
	logger   logging.Logger
	metrics  *metrics
	onFinish func(Run, core.EventType)

	mu        sync.RWMutex
	active    map[string]*activeRun
	destroyed bool
}

// New constructs a Runner delivering events through sink.
func New(reg *registry.Registry, sink core.EventSink, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		registry: reg,
		sink:     sink,
		bufSize:  opts.EventBufferSize,
		logger:   opts.Logger,
		metrics:  newMetrics(opts.Registerer),
		onFinish: opts.OnRunFinished,
		active:   make(map[string]*activeRun),
	}
}

// Start launches an asynchronous run of the named agent and returns its run
// id immediately; it never waits for the run to progress. An unknown agent
// name fails fast with an error enumerating all registered names. Failures
// after launch are surfaced exclusively as `error` lifecycle events on the
// run's key; nothing propagates back to the caller.
func (r *Runner) Start(ctx context.Context, agentName string, input core.Input, optFns ...func(o *StartOptions)) (string, error) {
	agent, err := r.registry.Resolve(agentName)
	if err != nil {
		return "", err
	}

	var sOpts StartOptions
	for _, fn := range optFns {
		fn(&sOpts)
	}

	runID := sOpts.RunID
	if runID == "" {
		runID = util.NewID()
	}

	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return "", ErrRunnerDestroyed
	}
	if _, exists := r.active[runID]; exists {
		r.mu.Unlock()
		return "", fmt.Errorf("run %q already active", runID)
	}

	runCtx, cancel := context.WithCancel(ctx)
	rec := &activeRun{
		agentName: agentName,
		startedAt: time.Now().UTC(),
		cancel:    cancel,
		observer:  sOpts.Observer,
	}
	r.active[runID] = rec
	r.mu.Unlock()

	emit := make(chan core.TaskEvent, r.bufSize)
	rc := core.NewRunContext(
		runCtx,
		runID,
		core.AgentInfo{Name: agent.Name(), Description: agent.Description()},
		input,
		emit,
		r.logger,
	)

	r.metrics.runsStarted.Inc()
	r.metrics.activeRuns.Inc()
	r.logger.Debug("runner.run.started run_id=%s agent=%s", runID, agentName)

	go r.execute(rc, agent, rec, emit)

	return runID, nil
}

// Cancel signals cooperative cancellation of an active run and returns true.
// It returns false if the run is not known (already finished or never
// existed) and never resurrects a finished run. Cancelling does not itself
// emit a `cancelled` event; the event is emitted only when the agent
// acknowledges the signal.
func (r *Runner) Cancel(runID string) bool {
	r.mu.RLock()
	rec, ok := r.active[runID]
	r.mu.RUnlock()

	if !ok {
		return false
	}

	rec.cancel()
	r.logger.Debug("runner.run.cancel_requested run_id=%s", runID)

	return true
}

// IsRunning reports whether the run is currently active.
func (r *Runner) IsRunning(runID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.active[runID]
	return ok
}

// ActiveRuns returns a snapshot of all active runs ordered by start time.
// Safe to call concurrently with running jobs.
func (r *Runner) ActiveRuns() []Run {
	r.mu.RLock()
	runs := make([]Run, 0, len(r.active))
	for id, rec := range r.active {
		runs = append(runs, Run{RunID: id, AgentName: rec.agentName, StartedAt: rec.startedAt})
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].RunID < runs[j].RunID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})

	return runs
}

// Agents returns all registered agent names in registration order.
func (r *Runner) Agents() []string { return r.registry.List() }

// Destroy signals cancellation on every active run and clears the active-run
// table, then rejects further starts. Used at process shutdown to avoid
// orphaned background work. Draining agents still wind down cooperatively
// after Destroy returns.
func (r *Runner) Destroy() {
	r.mu.Lock()
	r.destroyed = true
	recs := make([]*activeRun, 0, len(r.active))
	for _, rec := range r.active {
		recs = append(recs, rec)
	}
	r.active = make(map[string]*activeRun)
	r.mu.Unlock()

	for _, rec := range recs {
		rec.cancel()
	}

	r.logger.Info("runner.destroyed cancelled_runs=%d", len(recs))
}

// execute drains one agent run to completion. It forwards every event the
// agent yields, then guarantees exactly one terminal event per run: the
// agent's own terminal if it emitted one, otherwise a terminal synthesized
// from the Run return value (nil -> completed, context error -> cancelled,
// anything else -> error).
func (r *Runner) execute(rc *core.RunContext, agent core.Agent, rec *activeRun, emit chan core.TaskEvent) {
	runDone := make(chan error, 1)
	go func() {
		runDone <- r.runAgent(rc, agent)
		close(emit)
	}()

	r.deliver(rec, core.NewStartedEvent(rc.RunID))

	var terminal core.EventType
	for ev := range emit {
		if ev.IsTerminal() {
			terminal = ev.Type
		}
		r.deliver(rec, ev)
	}

	err := <-runDone

	if terminal == "" {
		switch {
		case err == nil:
			terminal = core.EventCompleted
			r.deliver(rec, core.NewCompletedEvent(rc.RunID, nil, rc.Elapsed()))
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			terminal = core.EventCancelled
			r.deliver(rec, core.NewCancelledEvent(rc.RunID))
		default:
			terminal = core.EventError
			r.deliver(rec, core.NewErrorEvent(rc.RunID, err.Error()))
		}
	} else if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("runner.run.error_after_terminal run_id=%s error=%v", rc.RunID, err)
	}

	rec.cancel()

	r.mu.Lock()
	delete(r.active, rc.RunID)
	r.mu.Unlock()

	r.metrics.activeRuns.Dec()
	r.metrics.runsFinished.WithLabelValues(string(terminal)).Inc()
	r.logger.Debug("runner.run.finished run_id=%s agent=%s status=%s duration_ms=%d",
		rc.RunID, rec.agentName, terminal, rc.Elapsed().Milliseconds())

	if r.onFinish != nil {
		r.onFinish(Run{RunID: rc.RunID, AgentName: rec.agentName, StartedAt: rec.startedAt}, terminal)
	}
}

// runAgent invokes Run with panic containment so a misbehaving agent cannot
// take the coordinator down.
func (r *Runner) runAgent(rc *core.RunContext, agent core.Agent) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("agent panic: %v", rec)
			r.logger.Error("runner.agent.panic run_id=%s agent=%s recover=%v", rc.RunID, agent.Name(), rec)
		}
	}()

	return agent.Run(rc)
}

// deliver routes one event according to the run's routing decision.
func (r *Runner) deliver(rec *activeRun, ev core.TaskEvent) {
	r.metrics.eventsDelivered.Inc()

	if rec.observer != "" {
		if !r.sink.SendTo(rec.observer, core.TaskEventChannel, ev) {
			r.logger.Debug("runner.event.unrouted observer=%s task_id=%s type=%s", rec.observer, ev.TaskID, ev.Type)
		}
		return
	}

	r.sink.Broadcast(core.TaskEventChannel, ev)
}
