package schedsi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/policies"
	"github.com/joeycumines/schedsi/vtime"
	"github.com/joeycumines/schedsi/workload"
)

func TestVCPUForwardsToChildScheduler(t *testing.T) {
	child := workload.NewFixedThread(10, 2, vtime.FromInt(5), vtime.Zero)
	view := &staticTestView{threads: map[schedsi.ThreadID]schedsi.Thread{10: child}}
	sched := schedsi.NewBaseScheduler(9, 2, policies.NewFCFS(), view, 8)

	vcpu := schedsi.NewVCPU(3, 1, sched, 8)

	req, ok := vcpu.Step(schedsi.Resumed{Reason: schedsi.ResumeInitial})
	require.True(t, ok)
	require.Equal(t, schedsi.RequestResume, req.Kind)
	require.NotNil(t, req.Chain)
	assert.Same(t, sched, req.Chain.Top().Thread)
}

func TestVCPUPropagatesSuspensionAsIdle(t *testing.T) {
	child := workload.NewFixedThread(10, 2, vtime.FromInt(5), vtime.Zero)
	view := &staticTestView{threads: map[schedsi.ThreadID]schedsi.Thread{10: child}}
	sched := schedsi.NewBaseScheduler(9, 2, policies.NewFCFS(), view, 8)
	vcpu := schedsi.NewVCPU(3, 1, sched, 8)

	_, _ = vcpu.Step(schedsi.Resumed{Reason: schedsi.ResumeInitial})

	sub := schedsi.FromThread(child, 8)
	req, ok := vcpu.Step(schedsi.Resumed{Time: vtime.FromInt(2), Reason: schedsi.ResumeFromChild, Suspended: sub})
	require.True(t, ok)
	assert.Equal(t, schedsi.RequestIdle, req.Kind)

	// Redispatched later (by the parent scheduler, emulated here with an
	// initial resume again): must resume the stashed sub-chain.
	req, ok = vcpu.Step(schedsi.Resumed{Time: vtime.FromInt(2), Reason: schedsi.ResumeInitial})
	require.True(t, ok)
	require.Equal(t, schedsi.RequestResume, req.Kind)
	assert.Same(t, sub, req.Chain)
}

func TestVCPUReadyDelegatesToChildSchedulerAndStopsOnceDrained(t *testing.T) {
	child := workload.NewFixedThread(10, 2, vtime.FromInt(5), vtime.FromInt(3))
	view := &staticTestView{threads: map[schedsi.ThreadID]schedsi.Thread{10: child}}
	sched := schedsi.NewBaseScheduler(9, 2, policies.NewFCFS(), view, 8)
	vcpu := schedsi.NewVCPU(3, 1, sched, 8)

	// Before the child's start_time, neither the scheduler nor the VCPU
	// standing in for it should be selectable.
	assert.False(t, sched.Ready(vtime.Zero))
	assert.False(t, vcpu.Ready(vtime.Zero))

	// Once the child becomes ready, both report ready.
	assert.True(t, sched.Ready(vtime.FromInt(3)))
	assert.True(t, vcpu.Ready(vtime.FromInt(3)))

	// Once the child's workload is exhausted, a drained subtree must
	// stop being selectable so a parent/root can observe idle.
	child.Finish(vtime.FromInt(3))
	assert.False(t, sched.Ready(vtime.FromInt(3)))
	assert.False(t, vcpu.Ready(vtime.FromInt(3)))
}
