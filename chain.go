package schedsi

import "github.com/joeycumines/schedsi/vtime"

// ContextChain is an ordered stack of Contexts, c₀ (the bottom, e.g. the
// kernel scheduler) through cₖ₋₁ (the top, the currently-executing
// activation), with k ≤ K_MAX. It caches next_timeout, the minimum
// timeout among its contexts (vtime.NoTimeout if none have one set), and
// every mutating operation maintains that cache exactly (the
// TIMER-CACHE invariant).
type ContextChain struct {
	contexts    []*Context
	nextTimeout vtime.Time
	kMax        int
	consumed    bool
}

// NewContextChain constructs an empty chain with the given maximum
// depth (K_MAX).
func NewContextChain(kMax int) *ContextChain {
	if kMax <= 0 {
		kMax = defaultKMax
	}
	return &ContextChain{nextTimeout: vtime.NoTimeout, kMax: kMax}
}

// FromContext constructs a singleton chain wrapping an existing Context.
func FromContext(ctx *Context, kMax int) *ContextChain {
	c := NewContextChain(kMax)
	c.contexts = []*Context{ctx}
	c.nextTimeout = ctx.timeout
	return c
}

// FromThread constructs a singleton chain, synthesizing a fresh Context
// whose timeout equals the thread's declared timeout (or none).
func FromThread(t Thread, kMax int) *ContextChain {
	return FromContext(NewContext(t, t.DeclaredTimeout()), kMax)
}

// Len returns the number of contexts on the chain.
func (c *ContextChain) Len() int { return len(c.contexts) }

// NextTimeout returns the cached minimum timeout across all contexts,
// or vtime.NoTimeout if the chain is empty or none have a timeout set.
func (c *ContextChain) NextTimeout() vtime.Time { return c.nextTimeout }

// Top returns the currently-executing (topmost) context, or nil if the
// chain is empty.
func (c *ContextChain) Top() *Context {
	if len(c.contexts) == 0 {
		return nil
	}
	return c.contexts[len(c.contexts)-1]
}

// CurrentContext is a synonym for Top.
func (c *ContextChain) CurrentContext() *Context { return c.Top() }

// Bottom returns the kernel (bottommost) context, or nil if the chain
// is empty.
func (c *ContextChain) Bottom() *Context {
	if len(c.contexts) == 0 {
		return nil
	}
	return c.contexts[0]
}

// Parent returns the context directly below top, or nil if len < 2.
func (c *ContextChain) Parent() *Context {
	if len(c.contexts) < 2 {
		return nil
	}
	return c.contexts[len(c.contexts)-2]
}

// resolveIndex converts a possibly-negative index (counting from the
// back) into an absolute index, validating range.
func (c *ContextChain) resolveIndex(i int) (int, error) {
	n := len(c.contexts)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, ErrIndexOutOfRange
	}
	return i, nil
}

// ThreadAt returns the Thread at index i (negative counts from the
// back).
func (c *ContextChain) ThreadAt(i int) (Thread, error) {
	idx, err := c.resolveIndex(i)
	if err != nil {
		return nil, err
	}
	return c.contexts[idx].Thread, nil
}

// ContextAt returns the Context at index i (negative counts from the
// back).
func (c *ContextChain) ContextAt(i int) (*Context, error) {
	idx, err := c.resolveIndex(i)
	if err != nil {
		return nil, err
	}
	return c.contexts[idx], nil
}

// recomputeNextTimeout recomputes the cached next_timeout from scratch.
func (c *ContextChain) recomputeNextTimeout() {
	next := vtime.NoTimeout
	for _, ctx := range c.contexts {
		if !ctx.timeout.IsNoTimeout() {
			next = vtime.Min(next, ctx.timeout)
		}
	}
	c.nextTimeout = next
}

// AppendChain splices tail onto the top of self; the combined length
// must not exceed K_MAX. self.next_timeout becomes
// min(self.next_timeout, tail.next_timeout). tail is logically consumed:
// its contexts move into self, it is left empty, and passing it to
// AppendChain again returns ErrChainConsumed. The returned slice aliases
// the surviving Context pointers.
//
// Returns the newly appended contexts, in order, for logging.
func (c *ContextChain) AppendChain(tail *ContextChain) ([]*Context, error) {
	if tail.consumed {
		return nil, ErrChainConsumed
	}
	if len(c.contexts)+len(tail.contexts) > c.kMax {
		return nil, ErrChainOverflow
	}
	start := len(c.contexts)
	c.contexts = append(c.contexts, tail.contexts...)
	c.nextTimeout = vtime.Min(c.nextTimeout, tail.nextTimeout)
	appended := c.contexts[start:]
	tail.contexts = nil
	tail.nextTimeout = vtime.NoTimeout
	tail.consumed = true
	return appended, nil
}

// SetTimer assigns contexts[idx].timeout = delta (idx=TopIndex means the
// current top) and maintains the next_timeout cache incrementally.
func (c *ContextChain) SetTimer(delta vtime.Time, idx int) error {
	if idx == TopIndex {
		idx = len(c.contexts) - 1
	}
	i, err := c.resolveIndex(idx)
	if err != nil {
		return err
	}
	old := c.contexts[i].timeout
	c.contexts[i].timeout = delta
	switch {
	case c.nextTimeout.IsNoTimeout():
		c.nextTimeout = delta
	case !delta.IsNoTimeout() && delta.Before(c.nextTimeout):
		c.nextTimeout = delta
	case old.Equal(c.nextTimeout):
		c.recomputeNextTimeout()
	}
	return nil
}

// Elapse subtracts delta from every context's timeout (those set to
// vtime.NoTimeout are left untouched) and updates the next_timeout cache
// in lockstep. Elapse must not be called with delta exceeding the
// chain's cached next_timeout — doing so violates Elapse's precondition
// and is reported as ErrTimerAlreadyElapsed.
//
// Every timed context is decremented unconditionally (not just up to
// the first that reaches zero): with K_MAX bounding chain depth to a
// small constant this costs nothing, and — unlike breaking out of the
// scan early — it correctly handles two contexts tied at next_timeout
// both reaching exactly 0 in the same Elapse call.
func (c *ContextChain) Elapse(delta vtime.Time) error {
	if delta.Sign() == 0 {
		return nil
	}
	if !c.nextTimeout.IsNoTimeout() && delta.After(c.nextTimeout) {
		return ErrTimerAlreadyElapsed
	}
	for _, ctx := range c.contexts {
		if !ctx.timeout.IsNoTimeout() {
			ctx.timeout = ctx.timeout.Sub(delta)
		}
	}
	if !c.nextTimeout.IsNoTimeout() {
		c.nextTimeout = c.nextTimeout.Sub(delta)
	}
	return nil
}

// FindElapsedTimer returns the lowest index i with contexts[i].timeout
// <= 0, or an error if none has elapsed.
func (c *ContextChain) FindElapsedTimer() (int, error) {
	for i, ctx := range c.contexts {
		if !ctx.timeout.IsNoTimeout() && ctx.timeout.Sign() <= 0 {
			return i, nil
		}
	}
	return 0, ErrIndexOutOfRange
}

// Split partitions the chain into self=[c0..ci) and a returned tail
// [ci..ck). Both cached next_timeout fields are recomputed from
// scratch, and the two halves are given independent backing arrays so
// mutating one can never alias the other.
func (c *ContextChain) Split(i int) (*ContextChain, error) {
	if i < 0 || i > len(c.contexts) {
		return nil, ErrIndexOutOfRange
	}
	head := make([]*Context, i)
	copy(head, c.contexts[:i])
	tail := make([]*Context, len(c.contexts)-i)
	copy(tail, c.contexts[i:])

	c.contexts = head
	c.recomputeNextTimeout()

	tailChain := &ContextChain{contexts: tail, kMax: c.kMax}
	tailChain.recomputeNextTimeout()
	return tailChain, nil
}

// Finish invokes Thread.Finish(now) on every thread in the chain, bottom
// to top, then empties the chain. This permanently terminates every
// thread on it (Remaining is zeroed, Finished becomes true) — reserved
// for simulation teardown, never for discarding a computation that is
// merely cut short mid-flight (see Discard).
func (c *ContextChain) Finish(now vtime.Time) {
	for _, ctx := range c.contexts {
		ctx.Thread.Finish(now)
	}
	c.contexts = nil
	c.nextTimeout = vtime.NoTimeout
}

// Discard drops every context's live computation without terminating
// the underlying threads: Remaining/Finished are left untouched, so a
// workload thread whose chain is cut short (e.g. the KernelTimerOnly
// variant unwinding a nested subtree on the kernel's own timer) keeps
// its outstanding work intact for a later dispatch. Any thread
// implementing Resettable additionally has its in-flight dispatch state
// cleared, so a nested scheduler/VCPU restarts cleanly from scratch
// next time rather than resuming mid-phase.
func (c *ContextChain) Discard() {
	for _, ctx := range c.contexts {
		if r, ok := ctx.Thread.(Resettable); ok {
			r.ResetDecisionState()
		}
	}
	c.contexts = nil
	c.nextTimeout = vtime.NoTimeout
}

// RunBackground invokes Thread.RunBackground(now, delta) on every
// context except the top, so ancestor activations update their
// statistics whenever the top context consumes time.
func (c *ContextChain) RunBackground(now, delta vtime.Time) {
	if len(c.contexts) < 2 {
		return
	}
	for _, ctx := range c.contexts[:len(c.contexts)-1] {
		ctx.Thread.RunBackground(now, delta)
	}
}

// Contexts returns the chain's contexts, bottom to top. The returned
// slice must not be mutated by the caller.
func (c *ContextChain) Contexts() []*Context { return c.contexts }
