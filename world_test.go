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

func TestWorldRegisterAndRun(t *testing.T) {
	world, err := schedsi.NewWorld()
	require.NoError(t, err)

	root := &schedsi.Module{ID: 1, Name: "root", HasRoot: true}
	require.NoError(t, world.RegisterModule(root))

	thread := workload.NewFixedThread(2, 1, vtime.FromInt(4), vtime.Zero)
	require.NoError(t, world.RegisterThread(thread))
	assert.Same(t, thread, world.Thread(2))
	assert.Equal(t, []schedsi.ThreadID{2}, world.Module(1).Threads)

	// Registering the same thread twice is an error.
	assert.Error(t, world.RegisterThread(thread))

	// Registering a thread for an unknown module is an error.
	orphan := workload.NewFixedThread(3, 99, vtime.FromInt(1), vtime.Zero)
	assert.Error(t, world.RegisterThread(orphan))

	view := &staticTestView{threads: map[schedsi.ThreadID]schedsi.Thread{2: thread}}
	sched := schedsi.NewBaseScheduler(1, 1, policies.NewFCFS(), view, 8)
	require.NoError(t, world.RegisterThread(sched))

	core, err := schedsi.NewCore("core0", sched, schedsi.WithThreadRegistry(world))
	require.NoError(t, err)
	world.AddCore(core)

	require.NoError(t, world.Run(context.Background()))
	assert.True(t, thread.Finished())
}

func TestWorldAnyPendingReportsEarliestStart(t *testing.T) {
	world, err := schedsi.NewWorld()
	require.NoError(t, err)
	root := &schedsi.Module{ID: 1, HasRoot: true}
	require.NoError(t, world.RegisterModule(root))

	a := workload.NewFixedThread(1, 1, vtime.FromInt(5), vtime.FromInt(10))
	b := workload.NewFixedThread(2, 1, vtime.FromInt(5), vtime.FromInt(3))
	require.NoError(t, world.RegisterThread(a))
	require.NoError(t, world.RegisterThread(b))

	ready, next := world.AnyPending(vtime.Zero)
	assert.False(t, ready)
	assert.True(t, next.Equal(vtime.FromInt(3)))

	ready, _ = world.AnyPending(vtime.FromInt(3))
	assert.True(t, ready)
}
