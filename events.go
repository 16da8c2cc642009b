package schedsi

import "github.com/joeycumines/schedsi/vtime"

// Relationship describes how one context on a chain relates to the one
// below it: sibling (same module) or child (the VCPU of a child
// module). The bottom entry of a ChainSummary is always "child" of the
// synthetic root.
type Relationship int

const (
	RelationChild Relationship = iota
	RelationSibling
)

func (r Relationship) String() string {
	if r == RelationSibling {
		return "sibling"
	}
	return "child"
}

// ChainEntry is one row of a ChainSummary.
type ChainEntry struct {
	ThreadID     ThreadID
	ModuleID     ModuleID
	Relationship Relationship
}

// ChainSummary is the ordered list of chain entries, bottom to top, used
// in schedule events.
type ChainSummary []ChainEntry

// EventKind tags the variant of an Event.
type EventKind int

const (
	EventSchedule EventKind = iota
	EventContextSwitch
	EventThreadExecute
	EventThreadYield
	EventThreadFinish
	EventTimerSet
	EventTimerElapsed
	EventCoreIdle
	EventThreadStatistics
	EventCoreStatistics
	EventCoreFailure
)

func (k EventKind) String() string {
	switch k {
	case EventSchedule:
		return "schedule"
	case EventContextSwitch:
		return "context_switch"
	case EventThreadExecute:
		return "thread_execute"
	case EventThreadYield:
		return "thread_yield"
	case EventThreadFinish:
		return "thread_finish"
	case EventTimerSet:
		return "timer_set"
	case EventTimerElapsed:
		return "timer_elapsed"
	case EventCoreIdle:
		return "core_idle"
	case EventThreadStatistics:
		return "thread_statistics"
	case EventCoreStatistics:
		return "core_statistics"
	case EventCoreFailure:
		return "core_failure"
	default:
		return "unknown"
	}
}

// SwitchDirection tags a context_switch event's direction.
type SwitchDirection int

const (
	SwitchDown SwitchDirection = iota
	SwitchUp
)

func (d SwitchDirection) String() string {
	if d == SwitchUp {
		return "up"
	}
	return "down"
}

// Event is a tagged variant of every structural event the Core emits.
// Exactly one of the typed fields is meaningful, selected by Kind; this
// shape (rather than one struct type per event) is what lets a single
// EventSink.Handle method dispatch every backend (text, binary, SVG,
// Multiplexer, ModuleGraphFilter, statistics).
type Event struct {
	Kind   EventKind
	CoreID string
	Time   vtime.Time

	// EventSchedule
	Chain ChainSummary

	// EventContextSwitch
	Direction SwitchDirection
	Cost      vtime.Time

	// EventThreadExecute / EventThreadYield / EventThreadFinish
	ThreadID ThreadID
	RunTime  vtime.Time

	// EventTimerSet / EventTimerElapsed
	CtxIndex int
	Value    vtime.Time // EventTimerSet only; vtime.NoTimeout clears

	// EventCoreIdle
	FromTime vtime.Time
	ToTime   vtime.Time

	// EventThreadStatistics / EventCoreStatistics
	ThreadCounters *ThreadCounters
	CoreCounters   *CoreCounters

	// EventCoreFailure
	Reason string
}

// ThreadCounters are the required per-thread statistics: total
// execution_time, per-run samples with their start times, wait_time
// samples, and context-switch in/out counts.
type ThreadCounters struct {
	ThreadID        ThreadID
	ExecutionTime   vtime.Time
	RunSamples      []RunSample
	WaitSamples     []vtime.Time
	CtxSwitchInCnt  int
	CtxSwitchOutCnt int
}

// RunSample records one contiguous run of execution.
type RunSample struct {
	StartTime vtime.Time
	Duration  vtime.Time
}

// CoreCounters are the required core statistics: total simulated time,
// time spent idle, time spent in context switches, and a per-module
// execution-time breakdown.
type CoreCounters struct {
	CoreID           string
	TotalTime        vtime.Time
	IdleTime         vtime.Time
	ContextSwitchTime vtime.Time
	ModuleExecution  map[ModuleID]vtime.Time
}

// EventSink is the interface consumed by every event backend (text,
// binary, SVG, statistics, fan-out, filtering). It is append-only:
// implementations must not mutate or reorder what they are handed.
type EventSink interface {
	Handle(Event)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Handle(e Event) { f(e) }

// NopEventSink discards every event; it is the Core/World default.
type NopEventSink struct{}

func (NopEventSink) Handle(Event) {}

// Multiplexer fans an event out to every attached sink, synchronously
// and in attachment order.
type Multiplexer struct {
	sinks []EventSink
}

// NewMultiplexer constructs a Multiplexer over the given sinks.
func NewMultiplexer(sinks ...EventSink) *Multiplexer {
	return &Multiplexer{sinks: append([]EventSink(nil), sinks...)}
}

// Add attaches another sink.
func (m *Multiplexer) Add(sink EventSink) {
	m.sinks = append(m.sinks, sink)
}

func (m *Multiplexer) Handle(e Event) {
	for _, s := range m.sinks {
		s.Handle(e)
	}
}

// ModuleGraphFilter wraps a sink, forwarding only events whose chain
// (for schedule events) or thread (for per-thread events) touches one
// of a fixed set of modules of interest. Events with no module
// association (e.g. core_statistics, core_failure) always pass through.
type ModuleGraphFilter struct {
	sink    EventSink
	modules map[ModuleID]struct{}
	thread  map[ThreadID]ModuleID
}

// NewModuleGraphFilter constructs a filter forwarding events touching
// any of the given modules to sink. thread is a lookup from ThreadID to
// its owning ModuleID (typically the World's arena), used to classify
// per-thread events that don't otherwise carry a ModuleID.
func NewModuleGraphFilter(sink EventSink, thread map[ThreadID]ModuleID, modules ...ModuleID) *ModuleGraphFilter {
	set := make(map[ModuleID]struct{}, len(modules))
	for _, m := range modules {
		set[m] = struct{}{}
	}
	return &ModuleGraphFilter{sink: sink, modules: set, thread: thread}
}

func (f *ModuleGraphFilter) matches(e Event) bool {
	switch e.Kind {
	case EventSchedule:
		for _, entry := range e.Chain {
			if _, ok := f.modules[entry.ModuleID]; ok {
				return true
			}
		}
		return false
	case EventThreadExecute, EventThreadYield, EventThreadFinish, EventThreadStatistics:
		mid, ok := f.thread[e.ThreadID]
		if !ok {
			return true
		}
		_, ok = f.modules[mid]
		return ok
	default:
		return true
	}
}

func (f *ModuleGraphFilter) Handle(e Event) {
	if f.matches(e) {
		f.sink.Handle(e)
	}
}
