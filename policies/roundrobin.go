// Package policies implements concrete Scheduler policies over the
// schedsi.Policy contract: round-robin, FCFS, shortest-job-first, a
// simplified multi-level feedback queue, an approximated CFS, and a
// penalty-addon decorator. The Core treats every decision here as
// opaque — fairness and ordering guarantees are policy-local.
package policies

import (
	"container/list"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

// RoundRobin dispatches ready threads in FIFO order, each for a fixed
// time slice; a thread that has not finished by the time its slice
// expires is re-queued at the back.
type RoundRobin struct {
	slice   vtime.Time
	queue   *list.List
	inQueue map[schedsi.ThreadID]*list.Element
}

// NewRoundRobin constructs a RoundRobin policy with the given
// per-dispatch time slice.
func NewRoundRobin(slice vtime.Time) *RoundRobin {
	return &RoundRobin{
		slice:   slice,
		queue:   list.New(),
		inQueue: make(map[schedsi.ThreadID]*list.Element),
	}
}

func (p *RoundRobin) enqueue(id schedsi.ThreadID) {
	if _, ok := p.inQueue[id]; ok {
		return
	}
	p.inQueue[id] = p.queue.PushBack(id)
}

func (p *RoundRobin) refill(now vtime.Time, view schedsi.PolicyView) {
	for _, id := range view.Candidates() {
		if _, queued := p.inQueue[id]; queued {
			continue
		}
		if t := view.Thread(id); t != nil && t.Ready(now) {
			p.enqueue(id)
		}
	}
}

func (p *RoundRobin) Next(now vtime.Time, view schedsi.PolicyView) (schedsi.ThreadID, vtime.Time, bool) {
	p.refill(now, view)
	for p.queue.Len() > 0 {
		e := p.queue.Front()
		id := e.Value.(schedsi.ThreadID)
		p.queue.Remove(e)
		delete(p.inQueue, id)
		if t := view.Thread(id); t != nil && t.Ready(now) {
			return id, p.slice, true
		}
	}
	return 0, vtime.NoTimeout, false
}

func (p *RoundRobin) Notify(now vtime.Time, child schedsi.ThreadID, reason schedsi.YieldReason) {
	if reason == schedsi.YieldFinished {
		return
	}
	p.enqueue(child)
}

// FCFS dispatches ready threads in the order they first became ready,
// each running to completion (or until preempted by a higher layer's
// timer) before the next is considered.
type FCFS struct {
	rr *RoundRobin
}

// NewFCFS constructs a first-come-first-served policy: a RoundRobin
// with an unbounded slice.
func NewFCFS() *FCFS {
	return &FCFS{rr: NewRoundRobin(vtime.NoTimeout)}
}

func (p *FCFS) Next(now vtime.Time, view schedsi.PolicyView) (schedsi.ThreadID, vtime.Time, bool) {
	return p.rr.Next(now, view)
}

func (p *FCFS) Notify(now vtime.Time, child schedsi.ThreadID, reason schedsi.YieldReason) {
	p.rr.Notify(now, child, reason)
}
