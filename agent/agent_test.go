package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/model"
)

func newTestRunContext(t *testing.T, prompt string) (*core.RunContext, chan core.TaskEvent, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	emit := make(chan core.TaskEvent, 64)
	rc := core.NewRunContext(ctx, "t1", core.AgentInfo{Name: "test"}, core.Input{Kind: "chat", Prompt: prompt}, emit, nil)
	return rc, emit, cancel
}

func TestBaseAgent_Identity(t *testing.T) {
	b := NewBaseAgent("drafter")

	assert.Equal(t, "drafter", b.Name())
	assert.Equal(t, "Agent drafter", b.Description())

	b.SetDescription("Writes first drafts")
	assert.Equal(t, "Writes first drafts", b.Description())
}

func TestFuncAgent_RunsBody(t *testing.T) {
	rc, emit, cancel := newTestRunContext(t, "")
	defer cancel()

	a := NewFuncAgent("indexer", func(rc *core.RunContext) error {
		if err := rc.EmitProgress(100, "indexed", ""); err != nil {
			return err
		}
		return rc.EmitCompleted(3, rc.Elapsed())
	})

	require.NoError(t, a.Run(rc))
	close(emit)

	var types []core.EventType
	for ev := range emit {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []core.EventType{core.EventProgress, core.EventCompleted}, types)
}

func TestFuncAgent_PropagatesError(t *testing.T) {
	rc, _, cancel := newTestRunContext(t, "")
	defer cancel()

	want := errors.New("disk full")
	a := NewFuncAgent("exporter", func(_ *core.RunContext) error { return want })

	assert.ErrorIs(t, a.Run(rc), want)
}

func TestFuncAgent_SkipsBodyWhenAlreadyCancelled(t *testing.T) {
	rc, _, cancel := newTestRunContext(t, "")
	cancel()

	ran := false
	a := NewFuncAgent("late", func(_ *core.RunContext) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, a.Run(rc), context.Canceled)
	assert.False(t, ran)
}

func TestChatAgent_StreamsTokensThenCompletes(t *testing.T) {
	m := model.NewMockModel("mock-1")
	m.AddResponse("hello", "hi")

	rc, emit, cancel := newTestRunContext(t, "hello")
	defer cancel()

	a := NewChatAgent("chat", m)
	require.NoError(t, a.Run(rc))
	close(emit)

	var evs []core.TaskEvent
	for ev := range emit {
		evs = append(evs, ev)
	}

	require.Len(t, evs, 3)
	assert.Equal(t, "h", evs[0].Token)
	assert.Equal(t, "i", evs[1].Token)
	assert.Equal(t, core.EventCompleted, evs[2].Type)
	assert.Equal(t, "hi", evs[2].Result)
}

func TestChatAgent_DescriptionNamesModel(t *testing.T) {
	a := NewChatAgent("chat", model.NewMockModel("mock-1"), WithSystem("be brief"))

	assert.Contains(t, a.Description(), "mock-1")
}
