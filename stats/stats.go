// Package stats aggregates the raw event stream into the per-thread and
// per-core statistics the EventThreadStatistics/EventCoreStatistics
// event payloads describe: total execution/idle/context-switch time,
// per-run samples, and per-module execution breakdowns. It is itself an
// EventSink, so it can be attached alongside any other sink via
// schedsi.Multiplexer.
package stats

import (
	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

// Aggregator watches an event stream and accumulates ThreadCounters and
// CoreCounters, queryable at any point (typically once a simulation's
// Run has returned).
type Aggregator struct {
	threadModule map[schedsi.ThreadID]schedsi.ModuleID
	threads      map[schedsi.ThreadID]*schedsi.ThreadCounters
	cores        map[string]*schedsi.CoreCounters

	lastYieldTime map[schedsi.ThreadID]vtime.Time
	waiting       map[schedsi.ThreadID]bool
}

// NewAggregator constructs an empty Aggregator. threadModule, if
// non-nil, is consulted to attribute per-thread execution time to its
// owning module in CoreCounters.ModuleExecution; pass the World's arena
// (or a snapshot of it) for that breakdown, or nil to skip it.
func NewAggregator(threadModule map[schedsi.ThreadID]schedsi.ModuleID) *Aggregator {
	return &Aggregator{
		threadModule:  threadModule,
		threads:       make(map[schedsi.ThreadID]*schedsi.ThreadCounters),
		cores:         make(map[string]*schedsi.CoreCounters),
		lastYieldTime: make(map[schedsi.ThreadID]vtime.Time),
		waiting:       make(map[schedsi.ThreadID]bool),
	}
}

func (a *Aggregator) thread(id schedsi.ThreadID) *schedsi.ThreadCounters {
	c, ok := a.threads[id]
	if !ok {
		c = &schedsi.ThreadCounters{ThreadID: id, ExecutionTime: vtime.Zero}
		a.threads[id] = c
	}
	return c
}

func (a *Aggregator) core(id string) *schedsi.CoreCounters {
	c, ok := a.cores[id]
	if !ok {
		c = &schedsi.CoreCounters{
			CoreID:            id,
			TotalTime:         vtime.Zero,
			IdleTime:          vtime.Zero,
			ContextSwitchTime: vtime.Zero,
			ModuleExecution:   make(map[schedsi.ModuleID]vtime.Time),
		}
		a.cores[id] = c
	}
	return c
}

func (a *Aggregator) Handle(e schedsi.Event) {
	switch e.Kind {
	case schedsi.EventThreadExecute:
		tc := a.thread(e.ThreadID)
		tc.ExecutionTime = tc.ExecutionTime.Add(e.RunTime)
		start := e.Time.Sub(e.RunTime)
		tc.RunSamples = append(tc.RunSamples, schedsi.RunSample{StartTime: start, Duration: e.RunTime})
		if last, ok := a.lastYieldTime[e.ThreadID]; ok && a.waiting[e.ThreadID] {
			tc.WaitSamples = append(tc.WaitSamples, start.Sub(last))
			a.waiting[e.ThreadID] = false
		}

		core := a.core(e.CoreID)
		core.TotalTime = core.TotalTime.Add(e.RunTime)
		if a.threadModule != nil {
			if mid, ok := a.threadModule[e.ThreadID]; ok {
				prev, seen := core.ModuleExecution[mid]
				if !seen {
					prev = vtime.Zero
				}
				core.ModuleExecution[mid] = prev.Add(e.RunTime)
			}
		}

	case schedsi.EventThreadYield:
		// The yielding thread is being switched out of the running
		// position; EventTimerElapsed, the other unwind trigger, carries a
		// CtxIndex rather than a ThreadID and so cannot be attributed to a
		// specific thread here.
		tc := a.thread(e.ThreadID)
		tc.CtxSwitchOutCnt++
		a.lastYieldTime[e.ThreadID] = e.Time
		a.waiting[e.ThreadID] = true

	case schedsi.EventThreadFinish:
		a.lastYieldTime[e.ThreadID] = e.Time
		a.waiting[e.ThreadID] = true

	case schedsi.EventContextSwitch:
		core := a.core(e.CoreID)
		core.TotalTime = core.TotalTime.Add(e.Cost)
		core.ContextSwitchTime = core.ContextSwitchTime.Add(e.Cost)

	case schedsi.EventCoreIdle:
		core := a.core(e.CoreID)
		idle := e.ToTime.Sub(e.FromTime)
		core.TotalTime = core.TotalTime.Add(idle)
		core.IdleTime = core.IdleTime.Add(idle)

	case schedsi.EventSchedule:
		for i, entry := range e.Chain {
			tc := a.thread(entry.ThreadID)
			if i == len(e.Chain)-1 {
				tc.CtxSwitchInCnt++
			}
		}
	}
}

// ThreadCounters returns a copy of the accumulated counters for id, or
// a zero-valued record if no events have touched it.
func (a *Aggregator) ThreadCounters(id schedsi.ThreadID) schedsi.ThreadCounters {
	if c, ok := a.threads[id]; ok {
		return *c
	}
	return schedsi.ThreadCounters{ThreadID: id, ExecutionTime: vtime.Zero}
}

// CoreCounters returns a copy of the accumulated counters for coreID, or
// a zero-valued record if no events have touched it.
func (a *Aggregator) CoreCounters(coreID string) schedsi.CoreCounters {
	if c, ok := a.cores[coreID]; ok {
		cp := *c
		cp.ModuleExecution = make(map[schedsi.ModuleID]vtime.Time, len(c.ModuleExecution))
		for k, v := range c.ModuleExecution {
			cp.ModuleExecution[k] = v
		}
		return cp
	}
	return schedsi.CoreCounters{
		CoreID:            coreID,
		TotalTime:         vtime.Zero,
		IdleTime:          vtime.Zero,
		ContextSwitchTime: vtime.Zero,
		ModuleExecution:   map[schedsi.ModuleID]vtime.Time{},
	}
}

// ThreadIDs returns every thread seen so far, order unspecified.
func (a *Aggregator) ThreadIDs() []schedsi.ThreadID {
	ids := make([]schedsi.ThreadID, 0, len(a.threads))
	for id := range a.threads {
		ids = append(ids, id)
	}
	return ids
}
