package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskEvent_Constructors(t *testing.T) {
	queued := NewQueuedEvent("t1", 3)
	assert.Equal(t, "t1", queued.TaskID)
	assert.Equal(t, EventQueued, queued.Type)
	if assert.NotNil(t, queued.Position) {
		assert.Equal(t, 3, *queued.Position)
	}
	assert.False(t, queued.Timestamp.IsZero())

	completed := NewCompletedEvent("t1", "result text", 1500*time.Millisecond)
	assert.Equal(t, EventCompleted, completed.Type)
	assert.Equal(t, int64(1500), completed.DurationMs)
	assert.Equal(t, "result text", completed.Result)

	errEv := NewErrorEvent("t1", "boom")
	assert.Equal(t, "boom", errEv.Error)

	pc := NewPriorityChangedEvent("t1", "high", 0)
	assert.Equal(t, "high", pc.Priority)
	if assert.NotNil(t, pc.Position) {
		assert.Equal(t, 0, *pc.Position)
	}
}

func TestTaskEvent_IsTerminal(t *testing.T) {
	terminal := []TaskEvent{
		NewCompletedEvent("t", nil, 0),
		NewErrorEvent("t", "x"),
		NewCancelledEvent("t"),
	}
	for _, ev := range terminal {
		assert.True(t, ev.IsTerminal(), "expected %s to be terminal", ev.Type)
	}

	nonTerminal := []TaskEvent{
		NewQueuedEvent("t", 0),
		NewStartedEvent("t"),
		NewProgressEvent("t", 50, "", ""),
		NewStreamEvent("t", "tok"),
		NewQueuePositionEvent("t", 1),
		NewPriorityChangedEvent("t", "low", 1),
	}
	for _, ev := range nonTerminal {
		assert.False(t, ev.IsTerminal(), "expected %s to be non-terminal", ev.Type)
	}
}
