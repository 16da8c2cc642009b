package schedsi

import (
	"sync/atomic"

	"github.com/joeycumines/schedsi/vtime"
)

// Status holds the mutable per-core state: the live ContextChain and
// current_time. It is created empty (chain = [kernel_scheduler_context]),
// mutated only by its owning Core, and destroyed at simulation end.
//
// The two driver strategies described by the spec — LocalTimer and
// KernelTimerOnly — are not distinct Status types here: they differ only
// in how the Core dispatches Timer/Idle/timer-elapsed, which is
// controlled by the Core's StatusVariant field. Status itself (chain +
// current_time) is identical in shape either way.
type Status struct {
	chain       *ContextChain
	currentTime vtime.Time
}

// NewStatus constructs a Status rooted at the given kernel scheduler
// thread, with current_time = 0.
func NewStatus(kernel Thread, kMax int) *Status {
	return &Status{
		chain:       FromThread(kernel, kMax),
		currentTime: vtime.Zero,
	}
}

// Chain returns the live ContextChain.
func (s *Status) Chain() *ContextChain { return s.chain }

// CurrentTime returns the current simulated time.
func (s *Status) CurrentTime() vtime.Time { return s.currentTime }

// CoreState enumerates a Core's own lifecycle, independent of the
// simulation's scheduling state: a Core is NotStarted until Run is
// first called, Running while its driver loop is active, and Done or
// Failed once that loop returns.
type CoreState uint64

const (
	CoreNotStarted CoreState = iota
	CoreRunning
	CoreDone
	CoreFailed
)

func (s CoreState) String() string {
	switch s {
	case CoreNotStarted:
		return "not_started"
	case CoreRunning:
		return "running"
	case CoreDone:
		return "done"
	case CoreFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// coreFastState is a lock-free state machine with cache-line padding,
// tracking a Core's lifecycle via pure atomic CAS — no mutex, no
// transition validation beyond the CAS itself.
type coreFastState struct { //nolint:unused
	_ [64]byte
	v atomic.Uint64
	_ [56]byte
}

func newCoreFastState() *coreFastState {
	s := &coreFastState{}
	s.v.Store(uint64(CoreNotStarted))
	return s
}

func (s *coreFastState) Load() CoreState { return CoreState(s.v.Load()) }

func (s *coreFastState) Store(state CoreState) { s.v.Store(uint64(state)) }

func (s *coreFastState) TryTransition(from, to CoreState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}
