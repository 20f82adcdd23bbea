// Package testutil provides lifecycle event builders for tests.
package testutil

import (
	"time"

	"github.com/inkfold/inkfold/core"
)

// Lifecycle accumulates a causally ordered event sequence for one task key.
type Lifecycle struct {
	taskID string
	events []core.TaskEvent
}

// NewLifecycle starts a sequence for taskID.
func NewLifecycle(taskID string) *Lifecycle {
	return &Lifecycle{taskID: taskID}
}

func (l *Lifecycle) Queued(position int) *Lifecycle {
	l.events = append(l.events, core.NewQueuedEvent(l.taskID, position))
	return l
}

func (l *Lifecycle) Started() *Lifecycle {
	l.events = append(l.events, core.NewStartedEvent(l.taskID))
	return l
}

func (l *Lifecycle) Progress(percent float64, message string) *Lifecycle {
	l.events = append(l.events, core.NewProgressEvent(l.taskID, percent, message, ""))
	return l
}

func (l *Lifecycle) Stream(tokens ...string) *Lifecycle {
	for _, tok := range tokens {
		l.events = append(l.events, core.NewStreamEvent(l.taskID, tok))
	}
	return l
}

func (l *Lifecycle) Completed(result any, d time.Duration) *Lifecycle {
	l.events = append(l.events, core.NewCompletedEvent(l.taskID, result, d))
	return l
}

func (l *Lifecycle) Errored(message string) *Lifecycle {
	l.events = append(l.events, core.NewErrorEvent(l.taskID, message))
	return l
}

func (l *Lifecycle) Cancelled() *Lifecycle {
	l.events = append(l.events, core.NewCancelledEvent(l.taskID))
	return l
}

// Events returns the accumulated sequence.
func (l *Lifecycle) Events() []core.TaskEvent { return l.events }
