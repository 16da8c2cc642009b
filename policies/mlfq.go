package policies

import (
	"container/list"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

// MLFQ is a simplified multi-level feedback queue: a fixed number of
// levels, each with a time slice double the level above it (level 0 is
// the shortest/highest priority). A thread enters at level 0; exhausting
// its slice without finishing demotes it one level (floor: the lowest
// level). There is no promotion/aging — a thread only ever moves down.
// This is the simplest faithful variant of MLFQ; true aging-based
// promotion is a documented extension point, not implemented here.
type MLFQ struct {
	baseSlice vtime.Time
	levels    []*list.List
	inQueue   map[schedsi.ThreadID]*list.Element
	levelOf   map[schedsi.ThreadID]int
}

// NewMLFQ constructs an MLFQ policy with the given number of levels and
// base (level-0) time slice.
func NewMLFQ(numLevels int, baseSlice vtime.Time) *MLFQ {
	if numLevels < 1 {
		numLevels = 1
	}
	levels := make([]*list.List, numLevels)
	for i := range levels {
		levels[i] = list.New()
	}
	return &MLFQ{
		baseSlice: baseSlice,
		levels:    levels,
		inQueue:   make(map[schedsi.ThreadID]*list.Element),
		levelOf:   make(map[schedsi.ThreadID]int),
	}
}

func (p *MLFQ) sliceFor(level int) vtime.Time {
	slice := p.baseSlice
	for i := 0; i < level; i++ {
		slice = slice.Add(slice)
	}
	return slice
}

func (p *MLFQ) enqueueAt(id schedsi.ThreadID, level int) {
	if level >= len(p.levels) {
		level = len(p.levels) - 1
	}
	if _, ok := p.inQueue[id]; ok {
		return
	}
	p.levelOf[id] = level
	p.inQueue[id] = p.levels[level].PushBack(id)
}

func (p *MLFQ) refill(now vtime.Time, view schedsi.PolicyView) {
	for _, id := range view.Candidates() {
		if _, queued := p.inQueue[id]; queued {
			continue
		}
		if t := view.Thread(id); t != nil && t.Ready(now) {
			level, seen := p.levelOf[id]
			if !seen {
				level = 0
			}
			p.enqueueAt(id, level)
		}
	}
}

func (p *MLFQ) Next(now vtime.Time, view schedsi.PolicyView) (schedsi.ThreadID, vtime.Time, bool) {
	p.refill(now, view)
	for lvl, q := range p.levels {
		for q.Len() > 0 {
			e := q.Front()
			id := e.Value.(schedsi.ThreadID)
			q.Remove(e)
			delete(p.inQueue, id)
			if t := view.Thread(id); t != nil && t.Ready(now) {
				return id, p.sliceFor(lvl), true
			}
		}
	}
	return 0, vtime.NoTimeout, false
}

func (p *MLFQ) Notify(now vtime.Time, child schedsi.ThreadID, reason schedsi.YieldReason) {
	if reason == schedsi.YieldFinished {
		delete(p.levelOf, child)
		return
	}
	level := p.levelOf[child] + 1
	p.enqueueAt(child, level)
}
