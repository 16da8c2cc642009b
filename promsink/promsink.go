// Package promsink exposes the simulation's aggregated statistics as
// Prometheus metrics: it is an EventSink that reacts only to
// core_statistics/thread_statistics events (snapshots carrying
// CoreCounters/ThreadCounters; the Core itself never emits them),
// updating a small set of gauge vectors on every snapshot.
package promsink

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joeycumines/schedsi"
)

// Sink wraps a set of registered Prometheus collectors fed by
// core_statistics/thread_statistics events.
type Sink struct {
	coreTotalTime     *prometheus.GaugeVec
	coreIdleTime      *prometheus.GaugeVec
	coreCtxSwitchTime *prometheus.GaugeVec

	threadExecTime     *prometheus.GaugeVec
	threadCtxSwitchIn  *prometheus.GaugeVec
	threadCtxSwitchOut *prometheus.GaugeVec
}

// NewSink constructs a Sink and registers its collectors against reg.
// Pass prometheus.DefaultRegisterer for the global registry, or a
// fresh prometheus.NewRegistry() for an isolated one (tests).
func NewSink(reg prometheus.Registerer) (*Sink, error) {
	s := &Sink{
		coreTotalTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "schedsi",
			Subsystem: "core",
			Name:      "total_time",
			Help:      "Total simulated time elapsed on this core.",
		}, []string{"core"}),
		coreIdleTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "schedsi",
			Subsystem: "core",
			Name:      "idle_time",
			Help:      "Simulated time this core spent idle.",
		}, []string{"core"}),
		coreCtxSwitchTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "schedsi",
			Subsystem: "core",
			Name:      "context_switch_time",
			Help:      "Simulated time this core spent performing context switches.",
		}, []string{"core"}),
		threadExecTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "schedsi",
			Subsystem: "thread",
			Name:      "execution_time",
			Help:      "Total simulated execution time accrued by this thread.",
		}, []string{"thread"}),
		threadCtxSwitchIn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "schedsi",
			Subsystem: "thread",
			Name:      "context_switch_in_total",
			Help:      "Number of times this thread was switched onto a core.",
		}, []string{"thread"}),
		threadCtxSwitchOut: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "schedsi",
			Subsystem: "thread",
			Name:      "context_switch_out_total",
			Help:      "Number of times this thread was switched off a core.",
		}, []string{"thread"}),
	}
	collectors := []prometheus.Collector{
		s.coreTotalTime, s.coreIdleTime, s.coreCtxSwitchTime,
		s.threadExecTime, s.threadCtxSwitchIn, s.threadCtxSwitchOut,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Sink) Handle(e schedsi.Event) {
	switch e.Kind {
	case schedsi.EventCoreStatistics:
		c := e.CoreCounters
		if c == nil {
			return
		}
		s.coreTotalTime.WithLabelValues(c.CoreID).Set(c.TotalTime.Float64())
		s.coreIdleTime.WithLabelValues(c.CoreID).Set(c.IdleTime.Float64())
		s.coreCtxSwitchTime.WithLabelValues(c.CoreID).Set(c.ContextSwitchTime.Float64())
	case schedsi.EventThreadStatistics:
		t := e.ThreadCounters
		if t == nil {
			return
		}
		label := t.ThreadID.String()
		s.threadExecTime.WithLabelValues(label).Set(t.ExecutionTime.Float64())
		s.threadCtxSwitchIn.WithLabelValues(label).Set(float64(t.CtxSwitchInCnt))
		s.threadCtxSwitchOut.WithLabelValues(label).Set(float64(t.CtxSwitchOutCnt))
	}
}
