package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfold/inkfold/agent"
	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/hub"
	"github.com/inkfold/inkfold/registry"
	"github.com/inkfold/inkfold/taskstore"
)

func collectUntilTerminal(t *testing.T, obs *hub.ChannelObserver, taskID string) []core.TaskEvent {
	t.Helper()
	var evs []core.TaskEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-obs.Events():
			if ev.TaskID != taskID {
				continue
			}
			evs = append(evs, ev)
			if ev.IsTerminal() {
				return evs
			}
		case <-timeout:
			t.Fatalf("timed out waiting for terminal event of task %s, have %d events", taskID, len(evs))
		}
	}
}

func TestEngine_SubmitDeliversFullLifecycle(t *testing.T) {
	e := New()
	defer e.Close()

	require.NoError(t, e.Register(agent.NewFuncAgent("echo", func(rc *core.RunContext) error {
		if err := rc.EmitToken("hi"); err != nil {
			return err
		}
		return rc.EmitCompleted("hi", rc.Elapsed())
	})))

	obs := hub.NewChannelObserver("win-1", 64)
	require.NoError(t, e.AttachObserver(obs))

	taskID, err := e.Submit(context.Background(), SubmitRequest{Agent: "echo", Input: core.Input{Kind: "chat", Prompt: "hi"}})
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	evs := collectUntilTerminal(t, obs, taskID)
	require.Len(t, evs, 4)
	assert.Equal(t, core.EventQueued, evs[0].Type)
	assert.Equal(t, core.EventStarted, evs[1].Type)
	assert.Equal(t, core.EventStream, evs[2].Type)
	assert.Equal(t, core.EventCompleted, evs[3].Type)
}

func TestEngine_SubmitUnknownAgentIsSynchronousError(t *testing.T) {
	e := New()
	defer e.Close()

	require.NoError(t, e.Register(agent.NewFuncAgent("a", func(_ *core.RunContext) error { return nil })))

	obs := hub.NewChannelObserver("win-1", 8)
	require.NoError(t, e.AttachObserver(obs))

	_, err := e.Submit(context.Background(), SubmitRequest{Agent: "ghost"})
	require.ErrorIs(t, err, registry.ErrAgentNotFound)
	assert.Contains(t, err.Error(), "a")

	select {
	case ev := <-obs.Events():
		t.Fatalf("unexpected event %s for rejected submission", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_CapacityRejectionAndSlotRelease(t *testing.T) {
	e := New(func(o *Options) {
		o.Config.MaxConcurrentTasks = 1
	})
	defer e.Close()

	release := make(chan struct{})
	require.NoError(t, e.Register(agent.NewFuncAgent("slow", func(rc *core.RunContext) error {
		select {
		case <-release:
			return nil
		case <-rc.Done():
			return rc.Err()
		}
	})))

	first, err := e.Submit(context.Background(), SubmitRequest{Agent: "slow"})
	require.NoError(t, err)

	_, err = e.Submit(context.Background(), SubmitRequest{Agent: "slow"})
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	close(release)

	// The slot frees once the first task's terminal event is delivered.
	deadline := time.Now().Add(2 * time.Second)
	var second string
	for time.Now().Before(deadline) {
		second, err = e.Submit(context.Background(), SubmitRequest{Agent: "slow"})
		if err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEngine_CancelActiveTask(t *testing.T) {
	e := New()
	defer e.Close()

	started := make(chan struct{})
	require.NoError(t, e.Register(agent.NewFuncAgent("blocking", func(rc *core.RunContext) error {
		close(started)
		<-rc.Done()
		return rc.Err()
	})))

	obs := hub.NewChannelObserver("win-1", 64)
	require.NoError(t, e.AttachObserver(obs))

	taskID, err := e.Submit(context.Background(), SubmitRequest{Agent: "blocking"})
	require.NoError(t, err)
	<-started

	require.True(t, e.Cancel(taskID))
	evs := collectUntilTerminal(t, obs, taskID)
	assert.Equal(t, core.EventCancelled, evs[len(evs)-1].Type)

	assert.False(t, e.Cancel(taskID))
}

func TestEngine_TargetedSubmissionIsInvisibleToOthers(t *testing.T) {
	e := New()
	defer e.Close()

	require.NoError(t, e.Register(agent.NewFuncAgent("quick", func(rc *core.RunContext) error {
		return rc.EmitCompleted("done", rc.Elapsed())
	})))

	private := hub.NewChannelObserver("private", 64)
	other := hub.NewChannelObserver("other", 64)
	require.NoError(t, e.AttachObserver(private))
	require.NoError(t, e.AttachObserver(other))

	taskID, err := e.Submit(context.Background(), SubmitRequest{Agent: "quick", Observer: "private"})
	require.NoError(t, err)

	evs := collectUntilTerminal(t, private, taskID)
	assert.Equal(t, core.EventQueued, evs[0].Type)
	assert.Equal(t, core.EventCompleted, evs[len(evs)-1].Type)

	select {
	case ev := <-other.Events():
		t.Fatalf("unexpected event %s leaked to other observer", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_SnapshotsTrackTerminalState(t *testing.T) {
	e := New()
	defer e.Close()

	require.NoError(t, e.Register(agent.NewFuncAgent("quick", func(rc *core.RunContext) error {
		return rc.EmitCompleted("ok", rc.Elapsed())
	})))

	obs := hub.NewChannelObserver("win-1", 64)
	require.NoError(t, e.AttachObserver(obs))

	taskID, err := e.Submit(context.Background(), SubmitRequest{Agent: "quick", Priority: "high", Input: core.Input{Kind: "chat"}})
	require.NoError(t, err)
	collectUntilTerminal(t, obs, taskID)

	task, ok := e.Task(taskID)
	require.True(t, ok)
	assert.Equal(t, taskstore.StatusCompleted, task.Status)
	assert.Equal(t, "high", task.Priority)
	assert.Equal(t, "chat", task.Type)
	assert.Equal(t, "ok", task.Result)

	assert.Equal(t, 1, e.Stats()[taskstore.StatusCompleted])
	require.Len(t, e.TaskSnapshots(), 1)

	assert.True(t, e.RemoveTask(taskID))
	assert.Empty(t, e.TaskSnapshots())
}

func TestEngine_ListAndAgents(t *testing.T) {
	e := New()
	defer e.Close()

	started := make(chan struct{})
	require.NoError(t, e.Register(agent.NewFuncAgent("blocking", func(rc *core.RunContext) error {
		close(started)
		<-rc.Done()
		return rc.Err()
	})))
	require.NoError(t, e.Register(agent.NewFuncAgent("other", func(_ *core.RunContext) error { return nil })))

	assert.Equal(t, []string{"blocking", "other"}, e.Agents())

	taskID, err := e.Submit(context.Background(), SubmitRequest{Agent: "blocking"})
	require.NoError(t, err)
	<-started

	runs := e.List()
	require.Len(t, runs, 1)
	assert.Equal(t, taskID, runs[0].RunID)
	assert.Equal(t, "blocking", runs[0].AgentName)
}
