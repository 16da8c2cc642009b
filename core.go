package schedsi

import (
	gocontext "context"
	"errors"

	"github.com/joeycumines/schedsi/vtime"
)

// ThreadRegistry is the World-provided view a Core consults to decide
// its termination condition and idle-advance target: whether any thread
// anywhere has remaining work and has reached its start_time, and if
// not, the earliest future start_time among threads that still have
// work.
type ThreadRegistry interface {
	// AnyPending reports whether any thread anywhere is ready at now,
	// and if not, the minimum start_time among threads with
	// remaining>0 (vtime.NoTimeout if none will ever become ready).
	AnyPending(now vtime.Time) (ready bool, nextStart vtime.Time)
}

// Core drives one scheduling step at a time: it pulls Requests out of
// the top context's computation, maintains the ContextChain, enforces
// nested timers, splits the chain on timeout, accounts time exactly,
// and emits Events. Core identity is its uid and its
// context_switch_cost function; Core exclusively owns its Status.
type Core struct {
	uid               string
	kMax              int
	variant           StatusVariant
	contextSwitchCost func(from, to *Context) vtime.Time
	sink              EventSink
	registry          ThreadRegistry
	logger            Logger

	status     *Status
	nextResume Resumed

	state *coreFastState
}

// NewCore constructs a Core rooted at the given kernel scheduler thread.
func NewCore(uid string, kernel Thread, opts ...CoreOption) (*Core, error) {
	cfg, err := resolveCoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Core{
		uid:               uid,
		kMax:              cfg.kMax,
		variant:           cfg.variant,
		contextSwitchCost: cfg.contextSwitchCost,
		sink:              cfg.sink,
		registry:          cfg.registry,
		logger:            cfg.logger,
		status:            NewStatus(kernel, cfg.kMax),
		nextResume:        Resumed{Reason: ResumeInitial},
		state:             newCoreFastState(),
	}, nil
}

// UID returns the core's identity.
func (c *Core) UID() string { return c.uid }

// Status returns the core's live Status.
func (c *Core) Status() *Status { return c.status }

// State returns the core's own lifecycle state (distinct from the
// simulated scheduling state held in Status).
func (c *Core) State() CoreState { return c.state.Load() }

// Run drives the core to completion or failure, one atomic step at a
// time, honoring ctx cancellation between steps.
func (c *Core) Run(ctx gocontext.Context) error {
	if !c.state.TryTransition(CoreNotStarted, CoreRunning) {
		return newSimErr("Core.Run", ErrMalformedRequest, c.uid, "core already started")
	}
	for {
		select {
		case <-ctx.Done():
			c.state.Store(CoreFailed)
			return ctx.Err()
		default:
		}
		done, err := c.step()
		if err != nil {
			c.state.Store(CoreFailed)
			c.logCoreFailure(err)
			c.sink.Handle(Event{Kind: EventCoreFailure, CoreID: c.uid, Time: c.status.currentTime, Reason: err.Error()})
			return err
		}
		if done {
			c.state.Store(CoreDone)
			return nil
		}
	}
}

// Step advances the core by exactly one atomic operation, for callers
// that want to drive the World's single-step outer loop themselves
// (see World). It returns done=true once the termination condition is
// reached.
func (c *Core) Step() (done bool, err error) { return c.step() }

func (c *Core) step() (bool, error) {
	chain := c.status.chain
	if chain.Len() == 0 {
		return true, nil
	}
	if nt := chain.NextTimeout(); !nt.IsNoTimeout() && nt.Sign() <= 0 {
		return false, c.handleTimerElapsed()
	}

	top := chain.Top()
	req, ok := top.next(c.nextResume)
	if !ok {
		return false, newSimErr("Core.step", ErrMalformedRequest, c.uid, threadLabel(top.Thread))
	}
	if err := req.Validate(); err != nil {
		return false, newSimErr("Core.step", err, c.uid, threadLabel(top.Thread))
	}

	switch req.Kind {
	case RequestCurrentTime:
		c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeAfterRequest}
		return false, nil
	case RequestTimer:
		return false, c.handleTimer(req)
	case RequestIdle:
		c.sink.Handle(Event{Kind: EventThreadYield, CoreID: c.uid, Time: c.status.currentTime, ThreadID: top.Thread.ID()})
		return c.handleIdle()
	case RequestResume:
		return false, c.handleResume(req.Chain)
	case RequestExecute:
		return false, c.handleExecute(req.N)
	default:
		return false, newSimErr("Core.step", ErrMalformedRequest, c.uid, threadLabel(top.Thread))
	}
}

func (c *Core) handleTimer(req Request) error {
	chain := c.status.chain
	idx := req.Index
	if idx == TopIndex {
		idx = chain.Len() - 1
	}
	if c.variant == KernelTimerOnlyVariant && idx != 0 {
		return newSimErr("Core.handleTimer", ErrTimerNotPermitted, c.uid, "")
	}
	if err := chain.SetTimer(req.Delta, idx); err != nil {
		return newSimErr("Core.handleTimer", err, c.uid, "")
	}
	c.sink.Handle(Event{Kind: EventTimerSet, CoreID: c.uid, Time: c.status.currentTime, CtxIndex: idx, Value: req.Delta})
	c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeAfterRequest}
	return nil
}

// chargeTime advances current_time and elapses the chain by delta,
// clamping to the chain's next_timeout if delta would otherwise
// overrun an already-pending timer (context-switch cost is simulator
// overhead, not itself a scheduling decision, so it must never silently
// skip a timer a context is waiting on).
func (c *Core) chargeTime(delta vtime.Time) error {
	if delta.Sign() <= 0 {
		return nil
	}
	nt := c.status.chain.NextTimeout()
	if !nt.IsNoTimeout() && delta.After(nt) {
		delta = nt
	}
	c.status.currentTime = c.status.currentTime.Add(delta)
	return c.status.chain.Elapse(delta)
}

func (c *Core) handleResume(sub *ContextChain) error {
	chain := c.status.chain
	fromCtx := chain.Top()
	toCtx := sub.Top()
	cost := c.contextSwitchCost(fromCtx, toCtx)
	if err := c.chargeTime(cost); err != nil {
		return newSimErr("Core.handleResume", err, c.uid, "")
	}
	if _, err := chain.AppendChain(sub); err != nil {
		return newSimErr("Core.handleResume", err, c.uid, threadLabel(toCtx.Thread))
	}
	c.sink.Handle(Event{Kind: EventSchedule, CoreID: c.uid, Time: c.status.currentTime, Chain: summarizeChain(chain)})
	c.sink.Handle(Event{Kind: EventContextSwitch, CoreID: c.uid, Time: c.status.currentTime, Direction: SwitchDown, Cost: cost})
	c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeInitial}
	return nil
}

func (c *Core) handleExecute(n int64) (bool, error) {
	chain := c.status.chain
	top := chain.Top()

	budget := chain.NextTimeout()
	if n != IndefiniteExecute {
		budget = vtime.Min(budget, vtime.FromInt(n))
	}
	if !budget.IsNoTimeout() && budget.Sign() <= 0 {
		return false, c.handleTimerElapsed()
	}

	delta := vtime.Min(budget, top.Thread.Remaining())

	top.Thread.Run(c.status.currentTime, delta)
	chain.RunBackground(c.status.currentTime, delta)
	c.status.currentTime = c.status.currentTime.Add(delta)
	if err := chain.Elapse(delta); err != nil {
		return false, newSimErr("Core.handleExecute", err, c.uid, threadLabel(top.Thread))
	}
	c.sink.Handle(Event{Kind: EventThreadExecute, CoreID: c.uid, Time: c.status.currentTime, ThreadID: top.Thread.ID(), RunTime: delta})

	if top.Thread.Remaining().IsZero() {
		c.sink.Handle(Event{Kind: EventThreadFinish, CoreID: c.uid, Time: c.status.currentTime, ThreadID: top.Thread.ID()})
		top.Thread.Finish(c.status.currentTime)
		if _, err := chain.Split(chain.Len() - 1); err != nil {
			return false, newSimErr("Core.handleExecute", err, c.uid, threadLabel(top.Thread))
		}
		c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeFromChild}
		return false, nil
	}

	c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeAfterRequest}
	return false, nil
}

func (c *Core) handleTimerElapsed() error {
	chain := c.status.chain
	i, err := chain.FindElapsedTimer()
	if err != nil {
		return newSimErr("Core.handleTimerElapsed", err, c.uid, "")
	}
	tail, err := chain.Split(i + 1)
	if err != nil {
		return newSimErr("Core.handleTimerElapsed", err, c.uid, "")
	}
	// The timer at i has now been delivered; clear it so the surviving
	// scheduler must explicitly re-arm rather than re-triggering
	// immediately on the next step.
	if err := chain.SetTimer(vtime.NoTimeout, i); err != nil {
		return newSimErr("Core.handleTimerElapsed", err, c.uid, "")
	}
	c.sink.Handle(Event{Kind: EventTimerElapsed, CoreID: c.uid, Time: c.status.currentTime, CtxIndex: i})

	if c.variant == KernelTimerOnlyVariant {
		tail.Discard()
		c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeFromChild}
		return nil
	}
	suspended := tail
	if tail.Len() == 0 {
		// Nothing above i was cut short (e.g. its child finished or idled
		// in the previous step): keep what that step already reported.
		suspended = c.nextResume.Suspended
	}
	c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeFromChild, Suspended: suspended}
	return nil
}

func (c *Core) handleIdle() (bool, error) {
	chain := c.status.chain

	if chain.Len() == 1 {
		ready, nextStart := true, vtime.NoTimeout
		if c.registry != nil {
			ready, nextStart = c.registry.AnyPending(c.status.currentTime)
		} else {
			ready = false
		}
		if !ready {
			if nextStart.IsNoTimeout() {
				return true, nil
			}
			from := c.status.currentTime
			c.status.currentTime = nextStart
			c.sink.Handle(Event{Kind: EventCoreIdle, CoreID: c.uid, Time: c.status.currentTime, FromTime: from, ToTime: nextStart})
			c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeAfterRequest}
			return false, nil
		}
		c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeAfterRequest}
		return false, nil
	}

	if c.variant == KernelTimerOnlyVariant {
		tail, err := chain.Split(1)
		if err != nil {
			return false, newSimErr("Core.handleIdle", err, c.uid, "")
		}
		tail.Discard()
		c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeFromChild}
		return false, nil
	}

	idx := chain.Len() - 1
	tail, err := chain.Split(idx)
	if err != nil {
		return false, newSimErr("Core.handleIdle", err, c.uid, "")
	}
	c.nextResume = Resumed{Time: c.status.currentTime, Reason: ResumeFromChild, Suspended: tail}
	return false, nil
}

// logCoreFailure reports a terminal core_failure (a malformed-request
// abort, a timer/chain assertion violation, or any other error from the
// taxonomy in errors.go) through the Logger, in addition to the
// EventCoreFailure placed on the EventSink.
func (c *Core) logCoreFailure(err error) {
	fields := map[string]any{"core": c.uid, "time": c.status.currentTime.String(), "error": err.Error()}
	var simErr *SimulationError
	if errors.As(err, &simErr) {
		fields["op"] = simErr.Op
		if simErr.Offender != "" {
			fields["offender"] = simErr.Offender
		}
	}
	c.logger.Log(LevelError, "core failure", fields)
}

func threadLabel(t Thread) string {
	if t == nil {
		return ""
	}
	return t.ID().String()
}

func summarizeChain(chain *ContextChain) ChainSummary {
	contexts := chain.Contexts()
	summary := make(ChainSummary, len(contexts))
	var prevModule ModuleID
	for i, ctx := range contexts {
		rel := RelationChild
		if i > 0 && ctx.Thread.ModuleID() == prevModule {
			rel = RelationSibling
		}
		summary[i] = ChainEntry{ThreadID: ctx.Thread.ID(), ModuleID: ctx.Thread.ModuleID(), Relationship: rel}
		prevModule = ctx.Thread.ModuleID()
	}
	return summary
}
