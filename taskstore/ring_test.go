package taskstore

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfold/inkfold/core"
)

func TestEventRing_RetainsMostRecentInOrder(t *testing.T) {
	r := newEventRing(3)

	for i := 0; i < 5; i++ {
		r.push(core.NewStreamEvent("t1", strconv.Itoa(i)))
	}

	evs := r.events()
	require.Len(t, evs, 3)
	assert.Equal(t, "2", evs[0].Token)
	assert.Equal(t, "3", evs[1].Token)
	assert.Equal(t, "4", evs[2].Token)
	assert.Equal(t, 3, r.len())
}

func TestEventRing_PartiallyFilled(t *testing.T) {
	r := newEventRing(4)

	r.push(core.NewStartedEvent("t1"))
	r.push(core.NewStreamEvent("t1", "a"))

	evs := r.events()
	require.Len(t, evs, 2)
	assert.Equal(t, core.EventStarted, evs[0].Type)
	assert.Equal(t, "a", evs[1].Token)
}

func TestEventRing_ZeroCapacityDropsAll(t *testing.T) {
	r := newEventRing(0)

	r.push(core.NewStartedEvent("t1"))

	assert.Zero(t, r.len())
	assert.Empty(t, r.events())
}
