package policies

import (
	"sort"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

// CFS approximates the Completely Fair Scheduler's core idea —
// dispatch whichever ready thread has accumulated the least virtual
// runtime — without its red-black-tree bookkeeping: candidates are
// kept in a slice and re-sorted by vruntime on each decision. A true
// O(log n) tree is out of scope; this is faithful to the fairness
// behavior, not the asymptotics.
type CFS struct {
	slice   vtime.Time
	vrt     map[schedsi.ThreadID]vtime.Time
	weights map[schedsi.ThreadID]int64
}

// NewCFS constructs a CFS-approximating policy with the given
// per-dispatch time slice (the "scheduling latency" granted before
// re-evaluating fairness).
func NewCFS(slice vtime.Time) *CFS {
	return &CFS{
		slice:   slice,
		vrt:     make(map[schedsi.ThreadID]vtime.Time),
		weights: make(map[schedsi.ThreadID]int64),
	}
}

// SetWeight sets a thread's scheduling weight (default 1); higher
// weight accrues virtual runtime more slowly, so it is dispatched more
// often relative to its peers.
func (p *CFS) SetWeight(id schedsi.ThreadID, weight int64) {
	if weight < 1 {
		weight = 1
	}
	p.weights[id] = weight
}

func (p *CFS) weight(id schedsi.ThreadID) int64 {
	if w, ok := p.weights[id]; ok {
		return w
	}
	return 1
}

func (p *CFS) Next(now vtime.Time, view schedsi.PolicyView) (schedsi.ThreadID, vtime.Time, bool) {
	candidates := view.Candidates()
	ready := candidates[:0:0]
	for _, id := range candidates {
		if t := view.Thread(id); t != nil && t.Ready(now) {
			ready = append(ready, id)
		}
	}
	if len(ready) == 0 {
		return 0, vtime.NoTimeout, false
	}
	sort.Slice(ready, func(i, j int) bool {
		vi, vj := p.vrtOf(ready[i]), p.vrtOf(ready[j])
		if vi.Equal(vj) {
			return ready[i] < ready[j]
		}
		return vi.Before(vj)
	})
	return ready[0], p.slice, true
}

func (p *CFS) vrtOf(id schedsi.ThreadID) vtime.Time {
	if v, ok := p.vrt[id]; ok {
		return v
	}
	return vtime.Zero
}

func (p *CFS) Notify(now vtime.Time, child schedsi.ThreadID, reason schedsi.YieldReason) {
	// Without the real runtime delta (the Core, not the policy, observes
	// it), assume a full slice was granted; vruntime += delta/weight,
	// per CFS's fairness rule.
	delta := p.slice
	if delta.IsNoTimeout() {
		return
	}
	increment := delta.DivInt(p.weight(child))
	p.vrt[child] = p.vrtOf(child).Add(increment)
}
