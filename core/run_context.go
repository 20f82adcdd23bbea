package core

import (
	"context"
	"time"

	"github.com/inkfold/inkfold/logging"
)

// RunContext carries execution state and helpers for one agent run. It
// encapsulates the per-run scope passed to an Agent's Run method:
//
//   - The ambient cancellation Context (the cooperative cancellation signal)
//   - Identifiers (RunID, Agent info)
//   - The caller-supplied Input
//   - The Emit channel lifecycle events travel on
//   - Structured logging helpers
//
// Events emitted through EmitEvent are stamped with the run's task key and a
// timestamp when the agent leaves them blank, so agent implementations can
// emit bare variants without caring about identity plumbing.
type RunContext struct {
	Context   context.Context
	RunID     string
	Agent     AgentInfo
	Input     Input
	StartedAt time.Time
	Emit      chan<- TaskEvent

	*loggerAdapter
}

// NewRunContext constructs a RunContext bound to the given cancellation
// context and emit channel.
func NewRunContext(
	ctx context.Context,
	runID string,
	agent AgentInfo,
	input Input,
	emit chan<- TaskEvent,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		Agent:         agent,
		Input:         input,
		StartedAt:     time.Now().UTC(),
		Emit:          emit,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the run is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Cancelled reports whether cancellation has been signalled. Agents check
// this between yields; there is no preemptive interruption.
func (rc *RunContext) Cancelled() bool { return rc.Context.Err() != nil }

// Elapsed returns the wall-clock time since the run context was created.
func (rc *RunContext) Elapsed() time.Duration { return time.Since(rc.StartedAt) }

// EmitEvent sends a lifecycle event on the run's emit channel, stamping the
// task key and timestamp if unset. The send is attempted before the
// cancellation check so an agent that finishes despite a pending cancel
// still gets its result through; the context error is returned only when
// the run is cancelled and the channel cannot accept the event.
func (rc *RunContext) EmitEvent(ev TaskEvent) error {
	if ev.TaskID == "" {
		ev.TaskID = rc.RunID
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	select {
	case rc.Emit <- ev:
		return nil
	default:
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	return nil
}

// EmitToken emits one incremental payload chunk.
func (rc *RunContext) EmitToken(token string) error {
	return rc.EmitEvent(NewStreamEvent(rc.RunID, token))
}

// EmitProgress emits a coarse progress update.
func (rc *RunContext) EmitProgress(percent float64, message, detail string) error {
	return rc.EmitEvent(NewProgressEvent(rc.RunID, percent, message, detail))
}

// EmitCompleted emits the success terminal carrying the result and measured
// duration (typically rc.Elapsed()).
func (rc *RunContext) EmitCompleted(result any, duration time.Duration) error {
	return rc.EmitEvent(NewCompletedEvent(rc.RunID, result, duration))
}
