package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/inkfold/inkfold/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver collects notifications for assertions.
type recordingObserver struct {
	id string
	mu sync.Mutex
	ev []core.TaskEvent
}

func newRecordingObserver(id string) *recordingObserver { return &recordingObserver{id: id} }

func (o *recordingObserver) ID() string { return o.id }

func (o *recordingObserver) Notify(_ string, ev core.TaskEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ev = append(o.ev, ev)
}

func (o *recordingObserver) events() []core.TaskEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]core.TaskEvent, len(o.ev))
	copy(out, o.ev)
	return out
}

func (o *recordingObserver) waitFor(t *testing.T, n int) []core.TaskEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if evs := o.events(); len(evs) >= n {
			return evs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("observer %s: timed out waiting for %d events, have %d", o.id, n, len(o.events()))
	return nil
}

func TestHub_BroadcastReachesAllObservers(t *testing.T) {
	h := New()
	defer h.Close()

	a := newRecordingObserver("a")
	b := newRecordingObserver("b")
	require.NoError(t, h.Attach(a))
	require.NoError(t, h.Attach(b))

	h.Broadcast(core.TaskEventChannel, core.NewStartedEvent("t1"))

	assert.Equal(t, core.EventStarted, a.waitFor(t, 1)[0].Type)
	assert.Equal(t, core.EventStarted, b.waitFor(t, 1)[0].Type)
}

func TestHub_SendToReachesOnlyTarget(t *testing.T) {
	h := New()
	defer h.Close()

	a := newRecordingObserver("a")
	b := newRecordingObserver("b")
	require.NoError(t, h.Attach(a))
	require.NoError(t, h.Attach(b))

	require.True(t, h.SendTo("a", core.TaskEventChannel, core.NewStreamEvent("t1", "hi")))

	a.waitFor(t, 1)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, b.events())
}

func TestHub_SendToUnknownObserver(t *testing.T) {
	h := New()
	defer h.Close()

	assert.False(t, h.SendTo("ghost", core.TaskEventChannel, core.NewStartedEvent("t1")))
}

func TestHub_AttachRejectsDuplicateID(t *testing.T) {
	h := New()
	defer h.Close()

	require.NoError(t, h.Attach(newRecordingObserver("a")))
	assert.ErrorIs(t, h.Attach(newRecordingObserver("a")), ErrObserverExists)
}

func TestHub_PerKeyOrderPreserved(t *testing.T) {
	h := New()
	defer h.Close()

	a := newRecordingObserver("a")
	require.NoError(t, h.Attach(a))

	h.Broadcast(core.TaskEventChannel, core.NewQueuedEvent("t1", 0))
	h.Broadcast(core.TaskEventChannel, core.NewStartedEvent("t1"))
	h.Broadcast(core.TaskEventChannel, core.NewStreamEvent("t1", "a"))
	h.Broadcast(core.TaskEventChannel, core.NewStreamEvent("t1", "b"))
	h.Broadcast(core.TaskEventChannel, core.NewCompletedEvent("t1", nil, 0))

	evs := a.waitFor(t, 5)
	want := []core.EventType{core.EventQueued, core.EventStarted, core.EventStream, core.EventStream, core.EventCompleted}
	for i, typ := range want {
		assert.Equal(t, typ, evs[i].Type)
	}
	assert.Equal(t, "a", evs[2].Token)
	assert.Equal(t, "b", evs[3].Token)
}

// blockingObserver never returns from Notify, simulating a wedged consumer.
type blockingObserver struct{ block chan struct{} }

func (o *blockingObserver) ID() string                    { return "stuck" }
func (o *blockingObserver) Notify(string, core.TaskEvent) { <-o.block }

func TestHub_SlowObserverNeverBlocksProducer(t *testing.T) {
	h := New(func(o *Options) { o.QueueSize = 2 })
	defer h.Close()

	stuck := &blockingObserver{block: make(chan struct{})}
	defer close(stuck.block)
	require.NoError(t, h.Attach(stuck))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			h.Broadcast(core.TaskEventChannel, core.NewStreamEvent("t1", "x"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a wedged observer")
	}
}

func TestHub_DetachStopsDelivery(t *testing.T) {
	h := New()
	defer h.Close()

	a := newRecordingObserver("a")
	require.NoError(t, h.Attach(a))
	h.Broadcast(core.TaskEventChannel, core.NewStartedEvent("t1"))
	a.waitFor(t, 1)

	require.True(t, h.Detach("a"))
	assert.False(t, h.Detach("a"))

	h.Broadcast(core.TaskEventChannel, core.NewStreamEvent("t1", "late"))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, a.events(), 1)
}

func TestHub_CloseRejectsAttach(t *testing.T) {
	h := New()
	h.Close()

	assert.ErrorIs(t, h.Attach(newRecordingObserver("a")), ErrHubClosed)
	assert.Empty(t, h.Observers())
}
