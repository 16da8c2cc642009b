package schedsi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/policies"
	"github.com/joeycumines/schedsi/vtime"
	"github.com/joeycumines/schedsi/workload"
)

type recordingSink struct {
	events []schedsi.Event
}

func (s *recordingSink) Handle(e schedsi.Event) { s.events = append(s.events, e) }

func (s *recordingSink) kinds() []schedsi.EventKind {
	kinds := make([]schedsi.EventKind, len(s.events))
	for i, e := range s.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type allPending struct {
	threads []schedsi.Thread
}

func (a *allPending) AnyPending(now vtime.Time) (bool, vtime.Time) {
	nextStart := vtime.NoTimeout
	for _, t := range a.threads {
		if t.Ready(now) {
			return true, vtime.NoTimeout
		}
		if t.Remaining().Sign() > 0 {
			nextStart = vtime.Min(nextStart, t.StartTime())
		}
	}
	return false, nextStart
}

func TestCoreRunsTwoThreadsRoundRobinToCompletion(t *testing.T) {
	a := workload.NewFixedThread(2, 1, vtime.FromInt(6), vtime.Zero)
	b := workload.NewFixedThread(3, 1, vtime.FromInt(6), vtime.Zero)
	view := &staticTestView{threads: map[schedsi.ThreadID]schedsi.Thread{2: a, 3: b}}
	sched := schedsi.NewBaseScheduler(1, 1, policies.NewRoundRobin(vtime.FromInt(3)), view, 8)

	sink := &recordingSink{}
	registry := &allPending{threads: []schedsi.Thread{a, b}}

	core, err := schedsi.NewCore("core0", sched,
		schedsi.WithEventSink(sink),
		schedsi.WithThreadRegistry(registry),
		schedsi.WithKMax(8),
	)
	require.NoError(t, err)

	require.NoError(t, core.Run(context.Background()))
	assert.Equal(t, schedsi.CoreDone, core.State())
	assert.True(t, a.Finished())
	assert.True(t, b.Finished())

	kinds := sink.kinds()
	require.NotEmpty(t, kinds)
	assert.Contains(t, kinds, schedsi.EventSchedule)
	assert.Contains(t, kinds, schedsi.EventThreadExecute)
	assert.Contains(t, kinds, schedsi.EventThreadFinish)
}

func TestCoreKernelTimerOnlyVariantDiscardsNestedChainOnElapse(t *testing.T) {
	leaf := workload.NewFixedThread(20, 2, vtime.FromInt(100), vtime.Zero)
	childView := &staticTestView{threads: map[schedsi.ThreadID]schedsi.Thread{20: leaf}}
	childSched := schedsi.NewBaseScheduler(10, 2, policies.NewFCFS(), childView, 8)

	vcpu := schedsi.NewVCPU(5, 1, childSched, 8)
	rootView := &staticTestView{threads: map[schedsi.ThreadID]schedsi.Thread{5: vcpu}}
	rootSched := schedsi.NewBaseScheduler(1, 1, policies.NewRoundRobin(vtime.FromInt(4)), rootView, 8)

	sink := &recordingSink{}
	registry := &allPending{threads: []schedsi.Thread{leaf}}

	core, err := schedsi.NewCore("core0", rootSched,
		schedsi.WithStatusVariant(schedsi.KernelTimerOnlyVariant),
		schedsi.WithEventSink(sink),
		schedsi.WithThreadRegistry(registry),
		schedsi.WithKMax(8),
	)
	require.NoError(t, err)

	// Drive a bounded number of steps rather than to completion: the
	// leaf's workload (100) vastly exceeds the root's slice (4), so this
	// exercises at least one KernelTimerOnly unwind-and-discard cycle.
	for i := 0; i < 200; i++ {
		done, err := core.Step()
		require.NoError(t, err)
		if done {
			break
		}
	}
	kinds := sink.kinds()
	assert.Contains(t, kinds, schedsi.EventTimerElapsed)

	// The unwind must discard only the cut-short computation, not the
	// leaf's outstanding workload: remaining + executed must still sum
	// to the original 100, and the leaf must not be marked finished.
	executed := vtime.Zero
	for _, e := range sink.events {
		if e.Kind == schedsi.EventThreadExecute && e.ThreadID == 20 {
			executed = executed.Add(e.RunTime)
		}
	}
	assert.False(t, leaf.Finished())
	assert.True(t, leaf.Remaining().Add(executed).Equal(vtime.FromInt(100)),
		"remaining=%v executed=%v", leaf.Remaining(), executed)
	assert.True(t, leaf.Remaining().Sign() > 0)
}
