package schedsi

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the error taxonomy from the simulator's
// error-handling design: programming errors (assertions), index errors,
// malformed scheduler output, and resource exhaustion.
var (
	// ErrChainOverflow indicates a ContextChain operation would exceed
	// K_MAX contexts.
	ErrChainOverflow = errors.New("schedsi: context chain would exceed K_MAX")

	// ErrChainConsumed indicates an attempt to reuse a ContextChain that
	// has already been spliced into another chain via AppendChain.
	ErrChainConsumed = errors.New("schedsi: context chain already consumed by append_chain")

	// ErrIndexOutOfRange indicates an out-of-range thread_at/set_timer/split index.
	ErrIndexOutOfRange = errors.New("schedsi: index out of range")

	// ErrTimerAlreadyElapsed indicates Elapse was called with Δ exceeding
	// the chain's cached next_timeout — a violation of Elapse's
	// precondition.
	ErrTimerAlreadyElapsed = errors.New("schedsi: elapse delta exceeds next_timeout")

	// ErrMalformedRequest indicates a computation produced an illegal
	// Request payload (Execute(0), a negative Timer, ending without
	// Finish, etc).
	ErrMalformedRequest = errors.New("schedsi: malformed request")

	// ErrTimerNotPermitted indicates a Timer request was issued by a
	// non-kernel context under the KernelTimerOnly status variant.
	ErrTimerNotPermitted = errors.New("schedsi: timer set by non-kernel context under KernelTimerOnly")

	// ErrThreadAlreadyOnChain indicates a Thread would appear twice on
	// the same chain.
	ErrThreadAlreadyOnChain = errors.New("schedsi: thread already present on chain")
)

// SimulationError wraps a sentinel error from the taxonomy above with
// the diagnostic context needed to reproduce and report it: which core,
// what simulated time, and (where relevant) which Thread or Scheduler
// produced the offending behavior.
//
// The Core does not attempt to recover from a SimulationError; the
// simulator's value is deterministic reproduction, not resilience. The
// EventSink receives a final core_failure event and the World stops all
// cores.
type SimulationError struct {
	// Op names the operation that failed, e.g. "ContextChain.Elapse" or
	// "Core.step".
	Op string
	// CoreUID identifies the core on which the error occurred, if any.
	CoreUID string
	// Offender names the Thread or Scheduler responsible, if known.
	Offender string
	// Err is the underlying sentinel error.
	Err error
}

func (e *SimulationError) Error() string {
	if e.Offender != "" {
		return fmt.Sprintf("schedsi: %s: %v (core=%s offender=%s)", e.Op, e.Err, e.CoreUID, e.Offender)
	}
	if e.CoreUID != "" {
		return fmt.Sprintf("schedsi: %s: %v (core=%s)", e.Op, e.Err, e.CoreUID)
	}
	return fmt.Sprintf("schedsi: %s: %v", e.Op, e.Err)
}

func (e *SimulationError) Unwrap() error { return e.Err }

// newSimErr constructs a *SimulationError for op/err, optionally naming
// the offending core and Thread/Scheduler.
func newSimErr(op string, err error, coreUID, offender string) *SimulationError {
	return &SimulationError{Op: op, CoreUID: coreUID, Offender: offender, Err: err}
}
