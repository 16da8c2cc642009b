package schedsi

import "github.com/joeycumines/schedsi/vtime"

// Thread is the capability set the Core drives: a resumable computation
// that yields Requests, plus the accounting hooks the Core calls as it
// advances simulated time.
//
// Per the design notes, execute is modeled as an explicit state
// machine rather than a native-stack coroutine: Step is called
// repeatedly, each call either producing the next Request or reporting
// that the computation ended without a terminal Finish (a fatal,
// malformed-output error — see ErrMalformedRequest).
type Thread interface {
	// ID identifies this thread within the World's arena.
	ID() ThreadID
	// ModuleID identifies the module that owns this thread.
	ModuleID() ModuleID

	// DeclaredTimeout is the timeout ContextChain.FromThread uses when
	// synthesizing a fresh Context for this thread. Most threads return
	// vtime.NoTimeout.
	DeclaredTimeout() vtime.Time

	// Remaining is the outstanding workload time; 0 means finished.
	// Monotonically non-increasing.
	Remaining() vtime.Time
	// StartTime is the earliest current_time at which this thread may
	// run.
	StartTime() vtime.Time
	// Ready reports remaining>0 && start_time<=now. It does not know
	// about "currently executing elsewhere" — the Core/World enforce
	// the at-most-once-on-a-chain invariant structurally.
	Ready(now vtime.Time) bool

	// Step advances the computation by one suspension point. resume
	// carries the Resumed value for this call: the current time, why the
	// computation is being (re)entered, and any suspended child
	// sub-chain. It returns the next
	// Request and true, or an arbitrary Request and false if the
	// underlying computation ended without ever reaching a terminal
	// state — a fatal, malformed-output condition.
	Step(resume Resumed) (Request, bool)

	// Run accounts δ units of work at the given current_time, reducing
	// Remaining (never below 0).
	Run(now, delta vtime.Time)
	// RunBackground is called on every ancestor context (every context
	// except the current top) each time the top consumes time, so
	// ancestor activations can update their own statistics without
	// being scheduled themselves.
	RunBackground(now, delta vtime.Time)
	// Finish terminates and discards the live computation.
	Finish(now vtime.Time)
}

// BaseThread implements the bookkeeping shared by every concrete Thread
// (remaining/start_time/ready/run), leaving Step (the computation
// itself) to the embedding type.
//
// Invariant: Remaining is monotonically non-increasing and never
// negative.
type BaseThread struct {
	id        ThreadID
	module    ModuleID
	remaining vtime.Time
	startTime vtime.Time
	finished  bool
}

// NewBaseThread constructs a BaseThread with the given identity,
// workload (remaining) and earliest start time.
func NewBaseThread(id ThreadID, module ModuleID, remaining, startTime vtime.Time) BaseThread {
	return BaseThread{id: id, module: module, remaining: remaining, startTime: startTime}
}

func (t *BaseThread) ID() ThreadID       { return t.id }
func (t *BaseThread) ModuleID() ModuleID { return t.module }

func (t *BaseThread) DeclaredTimeout() vtime.Time { return vtime.NoTimeout }

func (t *BaseThread) Remaining() vtime.Time { return t.remaining }
func (t *BaseThread) StartTime() vtime.Time { return t.startTime }

func (t *BaseThread) Ready(now vtime.Time) bool {
	return !t.finished && t.remaining.Sign() > 0 && !t.startTime.After(now)
}

// Run reduces Remaining by delta (never below zero). Embedding types
// that need to record per-run samples should call Run via an override
// that delegates back to this method.
func (t *BaseThread) Run(now, delta vtime.Time) {
	if delta.Sign() == 0 {
		return
	}
	next := t.remaining.Sub(delta)
	if next.Sign() < 0 {
		next = vtime.Zero
	}
	t.remaining = next
}

// RunBackground is a no-op by default; threads that need to track
// ancestor-activation statistics (e.g. VCPUs tallying descendant
// execution) override it.
func (t *BaseThread) RunBackground(now, delta vtime.Time) {}

// Finish marks the thread as finished. Embedding types that hold
// computation state should override Finish to also discard it, calling
// this method to update the finished flag.
func (t *BaseThread) Finish(now vtime.Time) {
	t.finished = true
	t.remaining = vtime.Zero
}

// Finished reports whether Finish has been called.
func (t *BaseThread) Finished() bool { return t.finished }

// Resettable is implemented by threads that carry in-flight dispatch
// state beyond their persistent workload (Remaining/StartTime) — a
// Scheduler's current phase and stashed per-child sub-chains, a VCPU's
// single stashed sub-chain. ContextChain.Discard uses it to clear that
// state when a still-live computation is cut short and abandoned
// rather than finished, so the next dispatch starts over cleanly
// instead of resuming mid-phase. Threads with no such state (ordinary
// workload leaves) need not implement it.
type Resettable interface {
	ResetDecisionState()
}
