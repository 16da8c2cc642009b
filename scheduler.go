package schedsi

import "github.com/joeycumines/schedsi/vtime"

// Scheduler is a Thread whose computation drives child-thread selection:
// consult current_time, choose a ready child, hand off control via
// Timer+Resume (or Execute for a same-module thread), and on
// resumption update internal queues and loop. Fairness/ordering
// guarantees are policy-specific and opaque to the Core.
type Scheduler interface {
	Thread
	// Policy returns the scheduling policy driving this Scheduler's
	// decisions, for introspection/testing.
	Policy() Policy
}

// YieldReason tags why a previously-dispatched child returned control
// to its scheduler.
type YieldReason int

const (
	YieldFinished YieldReason = iota
	// YieldSuspended covers both a timer elapsing above the child and
	// the child itself (a nested scheduler) going idle: either way its
	// computation is still live and stashed for a later redispatch.
	YieldSuspended
)

func (r YieldReason) String() string {
	switch r {
	case YieldFinished:
		return "finished"
	case YieldSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// PolicyView exposes the candidate child threads to a Policy, resolved
// through the owning World's arena, without granting the policy direct
// access to the World.
type PolicyView interface {
	// Candidates returns every ThreadID the scheduler may dispatch
	// (its module's own threads plus any child-module VCPUs).
	Candidates() []ThreadID
	// Thread resolves a ThreadID to its live Thread.
	Thread(id ThreadID) Thread
}

// Policy decides which child a Scheduler dispatches next and for how
// long. Next is called whenever the scheduler needs a decision (on
// first entry and every time a previously-dispatched child returns
// control); returning ok=false means "no thread ready, emit Idle".
// slice is the returned time-slice; vtime.NoTimeout means unbounded
// (the scheduler issues no Timer).
type Policy interface {
	Next(now vtime.Time, view PolicyView) (child ThreadID, slice vtime.Time, ok bool)
	Notify(now vtime.Time, child ThreadID, reason YieldReason)
}

type schedPhase int

const (
	phaseRequestTime schedPhase = iota
	phaseArmTimer
	phaseDispatch
)

// BaseScheduler implements the Scheduler/Thread contract mechanically
// (the Request sequencing: CurrentTime, then Timer+Resume or Idle, then
// await the child's return and loop), delegating only "which child, for
// how long" to a Policy. It also remembers, per child, a sub-chain
// suspended by a prior timeout, so re-dispatching that child resumes its
// live computation instead of restarting it from FromThread — per the
// spec, moving a Context between chains must never restart its
// computation.
type BaseScheduler struct {
	BaseThread
	policy Policy
	view   PolicyView
	kMax   int

	phase       schedPhase
	lastChild   ThreadID
	lastSlice   vtime.Time
	suspended   map[ThreadID]*ContextChain
}

// NewBaseScheduler constructs a BaseScheduler over policy, resolving
// candidates through view.
func NewBaseScheduler(id ThreadID, module ModuleID, policy Policy, view PolicyView, kMax int) *BaseScheduler {
	return &BaseScheduler{
		BaseThread: NewBaseThread(id, module, vtime.NoTimeout, vtime.Zero),
		policy:     policy,
		view:       view,
		kMax:       kMax,
		suspended:  make(map[ThreadID]*ContextChain),
	}
}

func (s *BaseScheduler) Policy() Policy { return s.policy }

// Ready reports whether any candidate thread this scheduler could
// dispatch — recursively, through any nested VCPU/Scheduler candidate
// — has pending work at now. A scheduler with nothing left under it
// must stop being selectable, or its parent (and eventually the root)
// can never observe the Idle/no-work condition and terminate.
func (s *BaseScheduler) Ready(now vtime.Time) bool {
	for _, id := range s.view.Candidates() {
		if t := s.view.Thread(id); t != nil && t.Ready(now) {
			return true
		}
	}
	return false
}

// ResetDecisionState discards in-flight dispatch state (the current
// phase, the last-dispatched child, and any stashed sub-chains) without
// touching Remaining/Finished — used when a still-live computation
// above this scheduler is cut short and discarded rather than finished,
// so the next dispatch starts this scheduler over from scratch.
func (s *BaseScheduler) ResetDecisionState() {
	s.phase = phaseRequestTime
	s.lastChild = 0
	s.lastSlice = vtime.Zero
	s.suspended = make(map[ThreadID]*ContextChain)
}

func (s *BaseScheduler) Step(resume Resumed) (Request, bool) {
	if resume.Reason == ResumeFromChild {
		if resume.Suspended != nil {
			// The child we last dispatched was cut short by a timer;
			// remember its live sub-chain so the next dispatch of that
			// same child resumes it rather than restarting.
			s.suspended[s.lastChild] = resume.Suspended
			s.policy.Notify(resume.Time, s.lastChild, YieldSuspended)
		} else {
			delete(s.suspended, s.lastChild)
			s.policy.Notify(resume.Time, s.lastChild, YieldFinished)
		}
		s.phase = phaseRequestTime
	}

	switch s.phase {
	case phaseRequestTime:
		s.phase = phaseDispatch
		return CurrentTimeRequest(), true
	case phaseArmTimer:
		return s.resumeChild()
	default:
		return s.dispatch(resume.Time)
	}
}

func (s *BaseScheduler) dispatch(now vtime.Time) (Request, bool) {
	child, slice, ok := s.policy.Next(now, s.view)
	if !ok {
		s.phase = phaseRequestTime
		return Idle(), true
	}
	s.lastChild = child
	s.lastSlice = slice
	if !slice.IsNoTimeout() {
		s.phase = phaseArmTimer
		return Timer(slice), true
	}
	return s.resumeChild()
}

func (s *BaseScheduler) resumeChild() (Request, bool) {
	s.phase = phaseRequestTime
	if sub, ok := s.suspended[s.lastChild]; ok {
		delete(s.suspended, s.lastChild)
		return Resume(sub), true
	}
	return Resume(FromThread(s.view.Thread(s.lastChild), s.kMax)), true
}
