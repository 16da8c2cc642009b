package workload_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
	"github.com/joeycumines/schedsi/workload"
)

func TestFixedThreadReadyAndFinish(t *testing.T) {
	th := workload.NewFixedThread(1, 1, vtime.FromInt(5), vtime.FromInt(2))
	assert.False(t, th.Ready(vtime.FromInt(1)))
	assert.True(t, th.Ready(vtime.FromInt(2)))

	req, ok := th.Step(schedsi.Resumed{Reason: schedsi.ResumeInitial})
	require.True(t, ok)
	assert.Equal(t, schedsi.RequestExecute, req.Kind)
	assert.Equal(t, schedsi.IndefiniteExecute, req.N)

	th.Run(vtime.FromInt(2), vtime.FromInt(5))
	assert.True(t, th.Remaining().IsZero())
	th.Finish(vtime.FromInt(7))
	assert.True(t, th.Finished())
	assert.False(t, th.Ready(vtime.FromInt(10)))
}

func TestPeriodicReleasesBoundedBursts(t *testing.T) {
	p := workload.NewPeriodic(1, 1, vtime.FromInt(3), vtime.FromInt(10), vtime.Zero, 2)

	assert.True(t, p.Ready(vtime.Zero))
	p.Run(vtime.Zero, vtime.FromInt(3))
	assert.True(t, p.Remaining().IsZero())
	assert.False(t, p.Done())

	p.Finish(vtime.FromInt(3))
	assert.False(t, p.Ready(vtime.FromInt(3)))
	assert.True(t, p.StartTime().Equal(vtime.FromInt(10)))
	assert.True(t, p.Ready(vtime.FromInt(10)))

	p.Run(vtime.FromInt(10), vtime.FromInt(3))
	p.Finish(vtime.FromInt(10))
	assert.True(t, p.Done())
	assert.False(t, p.Ready(vtime.FromInt(1000)))
}

func TestPeriodicUnboundedNeverDone(t *testing.T) {
	p := workload.NewPeriodic(1, 1, vtime.FromInt(1), vtime.FromInt(5), vtime.Zero, 0)
	for i := 0; i < 10; i++ {
		p.Run(p.StartTime(), vtime.FromInt(1))
		p.Finish(p.StartTime())
	}
	assert.False(t, p.Done())
}
