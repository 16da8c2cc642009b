package codec

import (
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

// BinarySink writes each event as a self-delimiting CBOR-encoded map
// record, one per Handle call, suitable for append-only replay logs.
// It is safe for concurrent use.
type BinarySink struct {
	mu  sync.Mutex
	w   io.Writer
	mode cbor.EncMode
}

// NewBinarySink constructs a BinarySink writing to w.
func NewBinarySink(w io.Writer) (*BinarySink, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("codec: binary sink: %w", err)
	}
	return &BinarySink{w: w, mode: mode}, nil
}

func (s *BinarySink) Handle(e schedsi.Event) {
	data, err := s.mode.Marshal(toWire(e))
	if err != nil {
		// Encoding a well-formed Event can't fail under canonical mode;
		// surface anything unexpected as a malformed record rather than
		// silently dropping it.
		data, _ = s.mode.Marshal(wireEvent{Kind: int(schedsi.EventCoreFailure), Reason: fmt.Sprintf("codec: marshal: %v", err)})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(data)
}

// BinarySource reads a stream of CBOR-encoded event records written by
// a BinarySink, one Event per call to Next.
type BinarySource struct {
	dec *cbor.Decoder
}

// NewBinarySource constructs a BinarySource reading from r.
func NewBinarySource(r io.Reader) *BinarySource {
	return &BinarySource{dec: cbor.NewDecoder(r)}
}

// Next decodes the next event, returning io.EOF once the stream is
// exhausted.
func (s *BinarySource) Next() (schedsi.Event, error) {
	var w wireEvent
	if err := s.dec.Decode(&w); err != nil {
		return schedsi.Event{}, err
	}
	return fromWire(w)
}

// wireEvent mirrors schedsi.Event with every vtime.Time replaced by its
// text form (vtime.Time has unexported internals, so it cannot be
// encoded directly via reflection-based CBOR).
type wireEvent struct {
	Kind      int
	CoreID    string
	Time      string
	Chain     []wireChainEntry
	Direction int
	Cost      string
	ThreadID  uint32
	RunTime   string
	CtxIndex  int
	Value     string
	FromTime  string
	ToTime    string
	ThreadCounters *wireThreadCounters
	CoreCounters   *wireCoreCounters
	Reason         string
}

type wireChainEntry struct {
	ThreadID     uint32
	ModuleID     uint32
	Relationship int
}

type wireRunSample struct {
	StartTime string
	Duration  string
}

type wireThreadCounters struct {
	ThreadID        uint32
	ExecutionTime   string
	RunSamples      []wireRunSample
	WaitSamples     []string
	CtxSwitchInCnt  int
	CtxSwitchOutCnt int
}

type wireCoreCounters struct {
	CoreID            string
	TotalTime         string
	IdleTime          string
	ContextSwitchTime string
	ModuleExecution   map[uint32]string
}

func timeText(t vtime.Time) string {
	b, _ := t.MarshalText()
	return string(b)
}

func parseTime(s string) (vtime.Time, error) {
	var t vtime.Time
	if err := t.UnmarshalText([]byte(s)); err != nil {
		return vtime.Time{}, err
	}
	return t, nil
}

func toWire(e schedsi.Event) wireEvent {
	w := wireEvent{
		Kind:      int(e.Kind),
		CoreID:    e.CoreID,
		Time:      timeText(e.Time),
		Direction: int(e.Direction),
		Cost:      timeText(e.Cost),
		ThreadID:  uint32(e.ThreadID),
		RunTime:   timeText(e.RunTime),
		CtxIndex:  e.CtxIndex,
		Value:     timeText(e.Value),
		FromTime:  timeText(e.FromTime),
		ToTime:    timeText(e.ToTime),
		Reason:    e.Reason,
	}
	if e.Chain != nil {
		w.Chain = make([]wireChainEntry, len(e.Chain))
		for i, entry := range e.Chain {
			w.Chain[i] = wireChainEntry{
				ThreadID:     uint32(entry.ThreadID),
				ModuleID:     uint32(entry.ModuleID),
				Relationship: int(entry.Relationship),
			}
		}
	}
	if e.ThreadCounters != nil {
		c := e.ThreadCounters
		wc := &wireThreadCounters{
			ThreadID:        uint32(c.ThreadID),
			ExecutionTime:   timeText(c.ExecutionTime),
			CtxSwitchInCnt:  c.CtxSwitchInCnt,
			CtxSwitchOutCnt: c.CtxSwitchOutCnt,
		}
		for _, rs := range c.RunSamples {
			wc.RunSamples = append(wc.RunSamples, wireRunSample{StartTime: timeText(rs.StartTime), Duration: timeText(rs.Duration)})
		}
		for _, ws := range c.WaitSamples {
			wc.WaitSamples = append(wc.WaitSamples, timeText(ws))
		}
		w.ThreadCounters = wc
	}
	if e.CoreCounters != nil {
		c := e.CoreCounters
		wc := &wireCoreCounters{
			CoreID:            c.CoreID,
			TotalTime:         timeText(c.TotalTime),
			IdleTime:          timeText(c.IdleTime),
			ContextSwitchTime: timeText(c.ContextSwitchTime),
		}
		if c.ModuleExecution != nil {
			wc.ModuleExecution = make(map[uint32]string, len(c.ModuleExecution))
			for mid, t := range c.ModuleExecution {
				wc.ModuleExecution[uint32(mid)] = timeText(t)
			}
		}
		w.CoreCounters = wc
	}
	return w
}

func fromWire(w wireEvent) (schedsi.Event, error) {
	e := schedsi.Event{
		Kind:      schedsi.EventKind(w.Kind),
		CoreID:    w.CoreID,
		Direction: schedsi.SwitchDirection(w.Direction),
		ThreadID:  schedsi.ThreadID(w.ThreadID),
		CtxIndex:  w.CtxIndex,
		Reason:    w.Reason,
	}
	var err error
	if e.Time, err = parseTime(w.Time); err != nil {
		return e, fmt.Errorf("codec: time: %w", err)
	}
	if e.Cost, err = parseTime(w.Cost); err != nil {
		return e, fmt.Errorf("codec: cost: %w", err)
	}
	if e.RunTime, err = parseTime(w.RunTime); err != nil {
		return e, fmt.Errorf("codec: run_time: %w", err)
	}
	if e.Value, err = parseTime(w.Value); err != nil {
		return e, fmt.Errorf("codec: value: %w", err)
	}
	if e.FromTime, err = parseTime(w.FromTime); err != nil {
		return e, fmt.Errorf("codec: from_time: %w", err)
	}
	if e.ToTime, err = parseTime(w.ToTime); err != nil {
		return e, fmt.Errorf("codec: to_time: %w", err)
	}
	if w.Chain != nil {
		e.Chain = make(schedsi.ChainSummary, len(w.Chain))
		for i, entry := range w.Chain {
			e.Chain[i] = schedsi.ChainEntry{
				ThreadID:     schedsi.ThreadID(entry.ThreadID),
				ModuleID:     schedsi.ModuleID(entry.ModuleID),
				Relationship: schedsi.Relationship(entry.Relationship),
			}
		}
	}
	if w.ThreadCounters != nil {
		wc := w.ThreadCounters
		c := &schedsi.ThreadCounters{
			ThreadID:        schedsi.ThreadID(wc.ThreadID),
			CtxSwitchInCnt:  wc.CtxSwitchInCnt,
			CtxSwitchOutCnt: wc.CtxSwitchOutCnt,
		}
		if c.ExecutionTime, err = parseTime(wc.ExecutionTime); err != nil {
			return e, fmt.Errorf("codec: execution_time: %w", err)
		}
		for _, rs := range wc.RunSamples {
			start, err := parseTime(rs.StartTime)
			if err != nil {
				return e, fmt.Errorf("codec: run sample start: %w", err)
			}
			dur, err := parseTime(rs.Duration)
			if err != nil {
				return e, fmt.Errorf("codec: run sample duration: %w", err)
			}
			c.RunSamples = append(c.RunSamples, schedsi.RunSample{StartTime: start, Duration: dur})
		}
		for _, ws := range wc.WaitSamples {
			t, err := parseTime(ws)
			if err != nil {
				return e, fmt.Errorf("codec: wait sample: %w", err)
			}
			c.WaitSamples = append(c.WaitSamples, t)
		}
		e.ThreadCounters = c
	}
	if w.CoreCounters != nil {
		wc := w.CoreCounters
		c := &schedsi.CoreCounters{CoreID: wc.CoreID}
		if c.TotalTime, err = parseTime(wc.TotalTime); err != nil {
			return e, fmt.Errorf("codec: total_time: %w", err)
		}
		if c.IdleTime, err = parseTime(wc.IdleTime); err != nil {
			return e, fmt.Errorf("codec: idle_time: %w", err)
		}
		if c.ContextSwitchTime, err = parseTime(wc.ContextSwitchTime); err != nil {
			return e, fmt.Errorf("codec: context_switch_time: %w", err)
		}
		if wc.ModuleExecution != nil {
			c.ModuleExecution = make(map[schedsi.ModuleID]vtime.Time, len(wc.ModuleExecution))
			for mid, s := range wc.ModuleExecution {
				t, err := parseTime(s)
				if err != nil {
					return e, fmt.Errorf("codec: module_execution: %w", err)
				}
				c.ModuleExecution[schedsi.ModuleID(mid)] = t
			}
		}
		e.CoreCounters = c
	}
	return e, nil
}
