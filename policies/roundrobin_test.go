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

type fixedView struct {
	threads map[schedsi.ThreadID]schedsi.Thread
	order   []schedsi.ThreadID
}

func (v *fixedView) Candidates() []schedsi.ThreadID { return v.order }
func (v *fixedView) Thread(id schedsi.ThreadID) schedsi.Thread { return v.threads[id] }

func newFixedView(threads ...schedsi.Thread) *fixedView {
	v := &fixedView{threads: make(map[schedsi.ThreadID]schedsi.Thread)}
	for _, t := range threads {
		v.threads[t.ID()] = t
		v.order = append(v.order, t.ID())
	}
	return v
}

func TestRoundRobinCyclesReadyThreads(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	b := workload.NewFixedThread(2, 1, vtime.FromInt(10), vtime.Zero)
	view := newFixedView(a, b)

	p := policies.NewRoundRobin(vtime.FromInt(2))

	id, slice, ok := p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.Equal(t, schedsi.ThreadID(1), id)
	assert.True(t, slice.Equal(vtime.FromInt(2)))

	p.Notify(vtime.FromInt(2), id, schedsi.YieldSuspended)

	id2, _, ok := p.Next(vtime.FromInt(2), view)
	require.True(t, ok)
	assert.Equal(t, schedsi.ThreadID(2), id2)
}

func TestRoundRobinSkipsFinishedThread(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	b := workload.NewFixedThread(2, 1, vtime.FromInt(10), vtime.Zero)
	view := newFixedView(a, b)
	p := policies.NewRoundRobin(vtime.FromInt(2))

	id, _, ok := p.Next(vtime.Zero, view)
	require.True(t, ok)
	require.Equal(t, schedsi.ThreadID(1), id)
	p.Notify(vtime.Zero, id, schedsi.YieldFinished)
	a.Finish(vtime.Zero)

	id, _, ok = p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.Equal(t, schedsi.ThreadID(2), id)
}

func TestFCFSGrantsUnboundedSlice(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	view := newFixedView(a)
	p := policies.NewFCFS()

	_, slice, ok := p.Next(vtime.Zero, view)
	require.True(t, ok)
	assert.True(t, slice.IsNoTimeout())
}
