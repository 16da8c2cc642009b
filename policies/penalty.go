package policies

import (
	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

// PenaltyAddon decorates another Policy, shrinking the slice it grants
// to a thread that has recently been suspended repeatedly (rather than
// finishing outright) — a cheap proxy for "this thread keeps eating its
// whole budget and getting cut short, so stop giving it as much room."
// It forwards every decision to the wrapped Policy unchanged except for
// this slice adjustment, and clears a thread's penalty the moment it
// finishes.
type PenaltyAddon struct {
	inner    schedsi.Policy
	maxLevel int
	floor    vtime.Time
	level    map[schedsi.ThreadID]int
}

// NewPenaltyAddon wraps inner, halving the granted slice (down to
// floor) once per consecutive suspension, up to maxLevel halvings.
func NewPenaltyAddon(inner schedsi.Policy, maxLevel int, floor vtime.Time) *PenaltyAddon {
	if maxLevel < 0 {
		maxLevel = 0
	}
	return &PenaltyAddon{
		inner:    inner,
		maxLevel: maxLevel,
		floor:    floor,
		level:    make(map[schedsi.ThreadID]int),
	}
}

func (p *PenaltyAddon) Next(now vtime.Time, view schedsi.PolicyView) (schedsi.ThreadID, vtime.Time, bool) {
	id, slice, ok := p.inner.Next(now, view)
	if !ok || slice.IsNoTimeout() {
		return id, slice, ok
	}
	lvl := p.level[id]
	for i := 0; i < lvl; i++ {
		halved := slice.DivInt(2)
		if halved.Before(p.floor) {
			break
		}
		slice = halved
	}
	return id, slice, ok
}

func (p *PenaltyAddon) Notify(now vtime.Time, child schedsi.ThreadID, reason schedsi.YieldReason) {
	p.inner.Notify(now, child, reason)
	if reason == schedsi.YieldFinished {
		delete(p.level, child)
		return
	}
	if p.level[child] < p.maxLevel {
		p.level[child]++
	}
}
