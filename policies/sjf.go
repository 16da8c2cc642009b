package policies

import (
	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

// SJF dispatches the ready thread with the smallest Remaining() each
// time, running it to completion (non-preemptive shortest-job-first).
// Ties break on ThreadID for determinism.
type SJF struct{}

// NewSJF constructs a shortest-job-first policy.
func NewSJF() *SJF { return &SJF{} }

func (p *SJF) Next(now vtime.Time, view schedsi.PolicyView) (schedsi.ThreadID, vtime.Time, bool) {
	var best schedsi.ThreadID
	var bestRemaining vtime.Time
	found := false
	for _, id := range view.Candidates() {
		t := view.Thread(id)
		if t == nil || !t.Ready(now) {
			continue
		}
		r := t.Remaining()
		if !found || r.Before(bestRemaining) || (r.Equal(bestRemaining) && id < best) {
			best, bestRemaining, found = id, r, true
		}
	}
	if !found {
		return 0, vtime.NoTimeout, false
	}
	return best, vtime.NoTimeout, true
}

func (p *SJF) Notify(now vtime.Time, child schedsi.ThreadID, reason schedsi.YieldReason) {}
