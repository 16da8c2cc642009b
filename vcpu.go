package schedsi

import "github.com/joeycumines/schedsi/vtime"

// VCPU is a Thread whose identity is a child module's scheduler entry
// point: when a parent module's scheduler dispatches it, it appears on
// the chain as a normal Context, and its only job is to push the child
// scheduler's own Context (or resume its previously-suspended sub-chain)
// onto the core's chain. A VCPU never accumulates remaining-style load —
// it only forwards control.
type VCPU struct {
	BaseThread
	scheduler Scheduler
	kMax      int
	suspended *ContextChain
}

// NewVCPU constructs a VCPU standing in for child's scheduler.
func NewVCPU(id ThreadID, module ModuleID, child Scheduler, kMax int) *VCPU {
	return &VCPU{
		BaseThread: NewBaseThread(id, module, vtime.NoTimeout, vtime.Zero),
		scheduler:  child,
		kMax:       kMax,
	}
}

// Ready delegates to the child scheduler: a VCPU has no workload of its
// own, so it stands in for its child module being selectable only for
// as long as that module still has something ready to run (checked
// recursively through any further nested VCPUs).
func (v *VCPU) Ready(now vtime.Time) bool { return v.scheduler.Ready(now) }

// ResetDecisionState discards the stashed suspended sub-chain (if any)
// without touching Remaining/Finished, mirroring BaseScheduler's reset:
// used when this VCPU's live computation is cut short and discarded
// rather than finished.
func (v *VCPU) ResetDecisionState() { v.suspended = nil }

func (v *VCPU) Step(resume Resumed) (Request, bool) {
	if resume.Reason == ResumeFromChild {
		v.suspended = resume.Suspended
		return Idle(), true
	}
	if v.suspended != nil {
		sub := v.suspended
		v.suspended = nil
		return Resume(sub), true
	}
	return Resume(FromThread(v.scheduler, v.kMax)), true
}
