package schedsi

import "github.com/joeycumines/schedsi/vtime"

// Context is one live activation record on a ContextChain: a reference
// to exactly one Thread, that thread's in-progress computation state
// (driven via Thread.Step), and a per-context timeout.
//
// A Context does not own the Thread it references — the Thread is
// shared/borrowed for as long as this Context sits on a chain. Moving a
// Context between chains does not restart its computation.
type Context struct {
	Thread  Thread
	timeout vtime.Time

	// started reports whether Step has been called at least once for
	// this Context's computation.
	started bool
}

// NewContext constructs a Context over t, with the given initial
// timeout.
func NewContext(t Thread, timeout vtime.Time) *Context {
	return &Context{Thread: t, timeout: timeout}
}

// Timeout returns the context's current timeout (vtime.NoTimeout if
// unset).
func (c *Context) Timeout() vtime.Time { return c.timeout }

// next pulls the next Request from this Context's computation, resuming
// it with the given Resumed value (the Core always knows current_time,
// so it populates Resumed.Time on every call; Resumed.Reason
// distinguishes why the computation is being (re)entered).
func (c *Context) next(resume Resumed) (Request, bool) {
	c.started = true
	return c.Thread.Step(resume)
}
