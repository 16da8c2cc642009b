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

func TestContextChainAppendSplit(t *testing.T) {
	bottom := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	top := workload.NewFixedThread(2, 1, vtime.FromInt(5), vtime.Zero)

	chain := schedsi.FromThread(bottom, 8)
	require.Equal(t, 1, chain.Len())

	tail := schedsi.FromThread(top, 8)
	appended, err := chain.AppendChain(tail)
	require.NoError(t, err)
	require.Len(t, appended, 1)
	assert.Equal(t, 2, chain.Len())
	assert.True(t, tail.NextTimeout().IsNoTimeout())

	// tail is now consumed; appending it again must fail.
	_, err = chain.AppendChain(tail)
	assert.ErrorIs(t, err, schedsi.ErrChainConsumed)

	split, err := chain.Split(1)
	require.NoError(t, err)
	assert.Equal(t, 1, chain.Len())
	assert.Equal(t, 1, split.Len())
	assert.Same(t, top, split.Top().Thread)
	assert.Same(t, bottom, chain.Top().Thread)
}

func TestContextChainOverflow(t *testing.T) {
	bottom := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	top := workload.NewFixedThread(2, 1, vtime.FromInt(5), vtime.Zero)

	chain := schedsi.FromThread(bottom, 1)
	tail := schedsi.FromThread(top, 1)
	_, err := chain.AppendChain(tail)
	assert.ErrorIs(t, err, schedsi.ErrChainOverflow)
}

func TestContextChainSetTimerAndElapseTiesAtZero(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	b := workload.NewFixedThread(2, 1, vtime.FromInt(10), vtime.Zero)

	chain := schedsi.FromThread(a, 8)
	tail := schedsi.FromThread(b, 8)
	_, err := chain.AppendChain(tail)
	require.NoError(t, err)

	require.NoError(t, chain.SetTimer(vtime.FromInt(5), 0))
	require.NoError(t, chain.SetTimer(vtime.FromInt(5), 1))
	assert.True(t, chain.NextTimeout().Equal(vtime.FromInt(5)))

	require.NoError(t, chain.Elapse(vtime.FromInt(5)))
	assert.True(t, chain.NextTimeout().IsZero())

	// Both contexts elapsed simultaneously: FindElapsedTimer reports the
	// lower index regardless of tie.
	idx, err := chain.FindElapsedTimer()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	ctx1, err := chain.ContextAt(1)
	require.NoError(t, err)
	assert.True(t, ctx1.Timeout().IsZero())
}

func TestContextChainElapsePastNextTimeoutErrors(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	chain := schedsi.FromThread(a, 8)
	require.NoError(t, chain.SetTimer(vtime.FromInt(3), 0))
	err := chain.Elapse(vtime.FromInt(4))
	assert.ErrorIs(t, err, schedsi.ErrTimerAlreadyElapsed)
}

func TestContextChainNegativeIndex(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	b := workload.NewFixedThread(2, 1, vtime.FromInt(10), vtime.Zero)
	chain := schedsi.FromThread(a, 8)
	tail := schedsi.FromThread(b, 8)
	_, err := chain.AppendChain(tail)
	require.NoError(t, err)

	th, err := chain.ThreadAt(-1)
	require.NoError(t, err)
	assert.Same(t, b, th)

	_, err = chain.ThreadAt(-3)
	assert.ErrorIs(t, err, schedsi.ErrIndexOutOfRange)
}

func TestContextChainFinish(t *testing.T) {
	a := workload.NewFixedThread(1, 1, vtime.FromInt(10), vtime.Zero)
	chain := schedsi.FromThread(a, 8)
	chain.Finish(vtime.FromInt(3))
	assert.Equal(t, 0, chain.Len())
	assert.True(t, a.Finished())
}

func TestContextChainDiscardPreservesWorkloadButResetsDecisionState(t *testing.T) {
	leaf := workload.NewFixedThread(20, 2, vtime.FromInt(100), vtime.Zero)
	childView := &staticTestView{threads: map[schedsi.ThreadID]schedsi.Thread{20: leaf}}
	childSched := schedsi.NewBaseScheduler(10, 2, policies.NewFCFS(), childView, 8)

	chain := schedsi.FromThread(leaf, 8)
	chain.Discard()
	assert.Equal(t, 0, chain.Len())
	assert.False(t, leaf.Finished())
	assert.True(t, leaf.Remaining().Equal(vtime.FromInt(100)))

	schedChain := schedsi.FromThread(childSched, 8)
	schedChain.Discard()
	assert.False(t, childSched.Finished())
}
