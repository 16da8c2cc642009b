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

func TestMLFQStartsAtLevelZeroAndDemotes(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(100), vtime.Zero)
	view := newFixedView(a)
	p := policies.NewMLFQ(3, vtime.FromInt(2))

	id, slice, ok := p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.Equal(t, schedsi.ThreadID(1), id)
	assert.True(t, slice.Equal(vtime.FromInt(2)))

	p.Notify(vtime.FromInt(2), id, schedsi.YieldSuspended)

	// Demoted to level 1: slice doubles.
	id, slice, ok = p.Next(vtime.FromInt(2), view)
	require.True(t, ok)
	assert.Equal(t, schedsi.ThreadID(1), id)
	assert.True(t, slice.Equal(vtime.FromInt(4)))
}

func TestMLFQFinishResetsLevel(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(100), vtime.Zero)
	view := newFixedView(a)
	p := policies.NewMLFQ(2, vtime.FromInt(2))

	id, _, _ := p.Next(vtime.Zero, view)
	p.Notify(vtime.Zero, id, schedsi.YieldFinished)

	id, slice, ok := p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.Equal(t, schedsi.ThreadID(1), id)
	assert.True(t, slice.Equal(vtime.FromInt(2)))
}

func TestMLFQClampsToLastLevel(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(100), vtime.Zero)
	view := newFixedView(a)
	p := policies.NewMLFQ(1, vtime.FromInt(2))

	id, _, _ := p.Next(vtime.Zero, view)
	p.Notify(vtime.Zero, id, schedsi.YieldSuspended)

	id, slice, ok := p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.Equal(t, schedsi.ThreadID(1), id)
	assert.True(t, slice.Equal(vtime.FromInt(2)))
}
