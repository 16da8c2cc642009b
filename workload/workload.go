// Package workload provides concrete Thread implementations for test
// scenarios and example configurations: a single fixed-length burst of
// CPU work, and a periodic release of fixed-length bursts.
package workload

import (
	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

// FixedThread is a leaf thread that runs to completion once, starting
// no earlier than its configured StartTime: it always requests an
// indefinite Execute and lets the Core clamp that against whatever
// budget (timer, slice) is in force above it.
type FixedThread struct {
	schedsi.BaseThread
}

// NewFixedThread constructs a FixedThread with the given workload
// length and earliest start time.
func NewFixedThread(id schedsi.ThreadID, module schedsi.ModuleID, length, startTime vtime.Time) *FixedThread {
	return &FixedThread{BaseThread: schedsi.NewBaseThread(id, module, length, startTime)}
}

func (t *FixedThread) Step(resume schedsi.Resumed) (schedsi.Request, bool) {
	return schedsi.ExecuteIndefinite(), true
}

// Periodic is a leaf thread that releases a fixed-length burst of work
// every period, for a bounded number of periods (or forever, if
// periods<=0). Between bursts it is simply not Ready; the owning
// scheduler's policy decides when to re-examine it, same as any other
// thread becoming ready again.
type Periodic struct {
	id      schedsi.ThreadID
	module  schedsi.ModuleID
	burst   vtime.Time
	period  vtime.Time
	periods int // periods remaining to release, <=0 means unbounded

	remaining vtime.Time
	release   vtime.Time
	done      bool
}

// NewPeriodic constructs a Periodic thread: burst units of work
// released every period, starting at firstRelease, for periods total
// releases (periods<=0 means it repeats forever).
func NewPeriodic(id schedsi.ThreadID, module schedsi.ModuleID, burst, period, firstRelease vtime.Time, periods int) *Periodic {
	return &Periodic{
		id:        id,
		module:    module,
		burst:     burst,
		period:    period,
		periods:   periods,
		remaining: burst,
		release:   firstRelease,
	}
}

func (t *Periodic) ID() schedsi.ThreadID       { return t.id }
func (t *Periodic) ModuleID() schedsi.ModuleID { return t.module }

func (t *Periodic) DeclaredTimeout() vtime.Time { return vtime.NoTimeout }

func (t *Periodic) Remaining() vtime.Time { return t.remaining }
func (t *Periodic) StartTime() vtime.Time { return t.release }

func (t *Periodic) Ready(now vtime.Time) bool {
	return !t.done && t.remaining.Sign() > 0 && !t.release.After(now)
}

func (t *Periodic) Step(resume schedsi.Resumed) (schedsi.Request, bool) {
	return schedsi.ExecuteIndefinite(), true
}

func (t *Periodic) Run(now, delta vtime.Time) {
	if delta.Sign() == 0 {
		return
	}
	next := t.remaining.Sub(delta)
	if next.Sign() < 0 {
		next = vtime.Zero
	}
	t.remaining = next
}

func (t *Periodic) RunBackground(now, delta vtime.Time) {}

// Finish is called by the Core once a burst's Remaining reaches zero.
// Unlike a one-shot thread, Periodic does not stay finished: if more
// periods remain it reloads the next burst and advances its release
// time, so it becomes Ready again once that release time is reached.
func (t *Periodic) Finish(now vtime.Time) {
	if t.periods > 0 {
		t.periods--
		if t.periods == 0 {
			t.done = true
			t.remaining = vtime.Zero
			return
		}
	}
	t.release = t.release.Add(t.period)
	t.remaining = t.burst
}

// Done reports whether every configured period has been released and
// completed (always false for an unbounded Periodic).
func (t *Periodic) Done() bool { return t.done }
