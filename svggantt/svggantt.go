// Package svggantt renders a simulation's event stream as a Gantt-chart
// SVG: one horizontal lane per thread, one bar per execution run. There
// is no SVG-producing library anywhere in the example corpus, so this
// is hand-rolled with stdlib fmt.
package svggantt

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/vtime"
)

const (
	pxPerUnit  = 20.0
	laneHeight = 24.0
	laneGap    = 4.0
	leftMargin = 120.0
	topMargin  = 20.0
)

// Sink accumulates thread_execute events into per-thread run bars and
// renders them as an SVG document on Flush.
type Sink struct {
	mu    sync.Mutex
	w     io.Writer
	order []schedsi.ThreadID
	bars  map[schedsi.ThreadID][]bar
	maxT  vtime.Time
	seen  map[schedsi.ThreadID]bool
}

type bar struct {
	start, duration float64
}

// NewSink constructs a Sink that will render to w once Flush is called.
func NewSink(w io.Writer) *Sink {
	return &Sink{
		w:    w,
		bars: make(map[schedsi.ThreadID][]bar),
		maxT: vtime.Zero,
		seen: make(map[schedsi.ThreadID]bool),
	}
}

func (s *Sink) Handle(e schedsi.Event) {
	if e.Kind != schedsi.EventThreadExecute {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seen[e.ThreadID] {
		s.seen[e.ThreadID] = true
		s.order = append(s.order, e.ThreadID)
	}
	end := e.Time
	start := end.Sub(e.RunTime)
	s.bars[e.ThreadID] = append(s.bars[e.ThreadID], bar{start: start.Float64(), duration: e.RunTime.Float64()})
	if end.After(s.maxT) {
		s.maxT = end
	}
}

// Flush renders the accumulated bars as an SVG document to the
// configured writer. It does not reset accumulated state; calling it
// more than once re-renders the same data (useful for periodic
// snapshots during a long-running simulation).
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := append([]schedsi.ThreadID(nil), s.order...)
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	width := leftMargin + s.maxT.Float64()*pxPerUnit + 20
	height := topMargin + float64(len(order))*(laneHeight+laneGap) + 20

	if _, err := fmt.Fprintf(s.w, `<svg xmlns="http://www.w3.org/2000/svg" width="%.1f" height="%.1f" font-family="monospace" font-size="12">`+"\n", width, height); err != nil {
		return err
	}
	for i, id := range order {
		y := topMargin + float64(i)*(laneHeight+laneGap)
		if _, err := fmt.Fprintf(s.w, `<text x="4" y="%.1f">%s</text>`+"\n", y+laneHeight*0.7, id); err != nil {
			return err
		}
		for _, b := range s.bars[id] {
			x := leftMargin + b.start*pxPerUnit
			w := b.duration * pxPerUnit
			if w < 1 {
				w = 1
			}
			if _, err := fmt.Fprintf(s.w, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#4a90d9" stroke="#222"/>`+"\n", x, y, w, laneHeight); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(s.w, `</svg>`)
	return err
}
