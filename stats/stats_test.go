package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/stats"
	"github.com/joeycumines/schedsi/vtime"
)

func TestAggregatorAccumulatesThreadAndCoreCounters(t *testing.T) {
	threadModule := map[schedsi.ThreadID]schedsi.ModuleID{1: 7}
	agg := stats.NewAggregator(threadModule)

	agg.Handle(schedsi.Event{Kind: schedsi.EventThreadExecute, CoreID: "core0", Time: vtime.FromInt(3), ThreadID: 1, RunTime: vtime.FromInt(3)})
	agg.Handle(schedsi.Event{Kind: schedsi.EventThreadYield, CoreID: "core0", Time: vtime.FromInt(3), ThreadID: 1})
	agg.Handle(schedsi.Event{Kind: schedsi.EventContextSwitch, CoreID: "core0", Time: vtime.FromInt(4), Cost: vtime.FromInt(1)})
	agg.Handle(schedsi.Event{Kind: schedsi.EventCoreIdle, CoreID: "core0", FromTime: vtime.FromInt(4), ToTime: vtime.FromInt(9)})
	agg.Handle(schedsi.Event{Kind: schedsi.EventThreadExecute, CoreID: "core0", Time: vtime.FromInt(12), ThreadID: 1, RunTime: vtime.FromInt(3)})

	tc := agg.ThreadCounters(1)
	assert.True(t, tc.ExecutionTime.Equal(vtime.FromInt(6)))
	assert.Len(t, tc.RunSamples, 2)
	assert.Equal(t, 1, tc.CtxSwitchOutCnt)

	cc := agg.CoreCounters("core0")
	assert.True(t, cc.TotalTime.Equal(vtime.FromInt(12)))
	assert.True(t, cc.IdleTime.Equal(vtime.FromInt(5)))
	assert.True(t, cc.ContextSwitchTime.Equal(vtime.FromInt(1)))
	assert.True(t, cc.ModuleExecution[7].Equal(vtime.FromInt(6)))
}

func TestAggregatorUnknownThreadReturnsZeroValue(t *testing.T) {
	agg := stats.NewAggregator(nil)
	tc := agg.ThreadCounters(99)
	assert.Equal(t, schedsi.ThreadID(99), tc.ThreadID)
	assert.True(t, tc.ExecutionTime.IsZero())
}
