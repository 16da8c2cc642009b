package policies_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/policies"
	"github.com/joeycumines/schedsi/vtime"
	"github.com/joeycumines/schedsi/workload"
)

func TestPenaltyAddonShrinksSliceOnRepeatedSuspension(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(100), vtime.Zero)
	view := newFixedView(a)
	inner := policies.NewRoundRobin(vtime.FromInt(8))
	p := policies.NewPenaltyAddon(inner, 3, vtime.FromInt(1))

	id, slice, ok := p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.True(t, slice.Equal(vtime.FromInt(8)))

	p.Notify(vtime.Zero, id, schedsi.YieldSuspended)
	_, slice, ok = p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.True(t, slice.Equal(vtime.FromInt(4)))

	p.Notify(vtime.Zero, id, schedsi.YieldSuspended)
	_, slice, ok = p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.True(t, slice.Equal(vtime.FromInt(2)))
}

func TestPenaltyAddonClearsOnFinish(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(100), vtime.Zero)
	view := newFixedView(a)
	inner := policies.NewRoundRobin(vtime.FromInt(8))
	p := policies.NewPenaltyAddon(inner, 3, vtime.FromInt(1))

	id, _, _ := p.Next(vtime.Zero, view)
	p.Notify(vtime.Zero, id, schedsi.YieldSuspended)
	p.Notify(vtime.Zero, id, schedsi.YieldFinished)

	_, slice, ok := p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.True(t, slice.Equal(vtime.FromInt(8)))
}
