// Package codec serializes the schedsi event stream: a human-readable
// line-oriented TextSink for logs/terminals, and a self-delimiting
// CBOR-encoded BinarySink/BinarySource pair for replay tooling.
package codec

import (
	"fmt"
	"io"
	"sync"

	"github.com/joeycumines/schedsi"
)

// TextSink writes one line per event to w, in a fixed human-readable
// format. It is safe for concurrent use.
type TextSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextSink constructs a TextSink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Handle(e schedsi.Event) {
	line := formatEvent(e)
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
}

func formatEvent(e schedsi.Event) string {
	switch e.Kind {
	case schedsi.EventSchedule:
		return fmt.Sprintf("%s core=%s time=%s chain=%s", e.Kind, e.CoreID, e.Time, formatChain(e.Chain))
	case schedsi.EventContextSwitch:
		return fmt.Sprintf("%s core=%s time=%s direction=%s cost=%s", e.Kind, e.CoreID, e.Time, e.Direction, e.Cost)
	case schedsi.EventThreadExecute:
		return fmt.Sprintf("%s core=%s time=%s thread=%s run_time=%s", e.Kind, e.CoreID, e.Time, e.ThreadID, e.RunTime)
	case schedsi.EventThreadYield, schedsi.EventThreadFinish:
		return fmt.Sprintf("%s core=%s time=%s thread=%s", e.Kind, e.CoreID, e.Time, e.ThreadID)
	case schedsi.EventTimerSet:
		return fmt.Sprintf("%s core=%s time=%s ctx=%d value=%s", e.Kind, e.CoreID, e.Time, e.CtxIndex, e.Value)
	case schedsi.EventTimerElapsed:
		return fmt.Sprintf("%s core=%s time=%s ctx=%d", e.Kind, e.CoreID, e.Time, e.CtxIndex)
	case schedsi.EventCoreIdle:
		return fmt.Sprintf("%s core=%s from=%s to=%s", e.Kind, e.CoreID, e.FromTime, e.ToTime)
	case schedsi.EventThreadStatistics:
		return fmt.Sprintf("%s core=%s time=%s %s", e.Kind, e.CoreID, e.Time, formatThreadCounters(e.ThreadCounters))
	case schedsi.EventCoreStatistics:
		return fmt.Sprintf("%s core=%s time=%s %s", e.Kind, e.CoreID, e.Time, formatCoreCounters(e.CoreCounters))
	case schedsi.EventCoreFailure:
		return fmt.Sprintf("%s core=%s time=%s reason=%q", e.Kind, e.CoreID, e.Time, e.Reason)
	default:
		return fmt.Sprintf("%s core=%s time=%s", e.Kind, e.CoreID, e.Time)
	}
}

func formatChain(chain schedsi.ChainSummary) string {
	out := "["
	for i, entry := range chain {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s/%s/%s", entry.ThreadID, entry.ModuleID, entry.Relationship)
	}
	return out + "]"
}

func formatThreadCounters(c *schedsi.ThreadCounters) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("thread=%s execution_time=%s runs=%d waits=%d ctx_in=%d ctx_out=%d",
		c.ThreadID, c.ExecutionTime, len(c.RunSamples), len(c.WaitSamples), c.CtxSwitchInCnt, c.CtxSwitchOutCnt)
}

func formatCoreCounters(c *schedsi.CoreCounters) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("total_time=%s idle_time=%s ctx_switch_time=%s modules=%d",
		c.TotalTime, c.IdleTime, c.ContextSwitchTime, len(c.ModuleExecution))
}
