package schedsi

import (
	gocontext "context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/schedsi/vtime"
)

// World owns every Module and Thread in the simulated hierarchy (the
// arena referenced by ModuleID/ThreadID) and drives its Cores. Multi-core
// execution is out of scope for the core scheduling semantics
// (single-core is all §4 specifies), but the driver is written against a
// slice of Cores: each Core runs its own step loop (Core.Run) in a
// golang.org/x/sync/errgroup goroutine, and Run waits for all of them.
// Cores are not stepped in lockstep with one another.
type World struct {
	opts worldOptions

	mu      sync.Mutex
	modules map[ModuleID]*Module
	threads map[ThreadID]Thread
	cores   []*Core
}

// NewWorld constructs an empty World.
func NewWorld(opts ...WorldOption) (*World, error) {
	cfg, err := resolveWorldOptions(opts)
	if err != nil {
		return nil, err
	}
	return &World{
		opts:    *cfg,
		modules: make(map[ModuleID]*Module),
		threads: make(map[ThreadID]Thread),
	}, nil
}

// RegisterModule adds m to the arena. It is an error to register a
// ModuleID twice.
func (w *World) RegisterModule(m *Module) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.modules[m.ID]; exists {
		return fmt.Errorf("schedsi: module %s already registered", m.ID)
	}
	w.modules[m.ID] = m
	return nil
}

// RegisterThread adds t to the arena, under its own ModuleID/ThreadID,
// and appends it to that module's Threads list. It is an error to
// register a ThreadID twice or for the owning module to be unknown.
func (w *World) RegisterThread(t Thread) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.threads[t.ID()]; exists {
		return fmt.Errorf("schedsi: thread %s already registered", t.ID())
	}
	m, ok := w.modules[t.ModuleID()]
	if !ok {
		return fmt.Errorf("schedsi: thread %s references unknown module %s", t.ID(), t.ModuleID())
	}
	w.threads[t.ID()] = t
	m.Threads = append(m.Threads, t.ID())
	return nil
}

// Module resolves a ModuleID through the arena.
func (w *World) Module(id ModuleID) *Module {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.modules[id]
}

// Thread resolves a ThreadID through the arena.
func (w *World) Thread(id ThreadID) Thread {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.threads[id]
}

// AddCore attaches a Core the World will drive. A Core built without
// WithEventSink is given the World's sink (see WithWorldEventSink). A
// ThreadRegistry is not retrofitted: supply it via WithThreadRegistry
// before calling AddCore.
func (w *World) AddCore(c *Core) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, isNop := c.sink.(NopEventSink); isNop {
		c.sink = w.opts.sink
	}
	w.cores = append(w.cores, c)
}

// AnyPending implements ThreadRegistry by scanning every registered
// thread: it is the default registry a Core should be constructed with
// via WithThreadRegistry(world).
func (w *World) AnyPending(now vtime.Time) (ready bool, nextStart vtime.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	nextStart = vtime.NoTimeout
	for _, t := range w.threads {
		// Scheduler/VCPU threads report Remaining() == NoTimeout (they
		// never "run out" the way a workload thread does) and carry no
		// discrete work of their own, so they never contribute to the
		// termination decision; only threads with finite outstanding
		// work do.
		r := t.Remaining()
		if r.IsNoTimeout() || r.Sign() <= 0 {
			continue
		}
		if !t.StartTime().After(now) {
			return true, vtime.NoTimeout
		}
		nextStart = vtime.Min(nextStart, t.StartTime())
	}
	return false, nextStart
}

// Run drives every attached Core to completion, each via its own
// Core.Run loop (one atomic step at a time) in an errgroup.Group
// goroutine, and waits for all of them. On any Core's failure the shared ctx is
// cancelled, stopping every other Core; the returned error aggregates
// every Core's failure via go-multierror (nil if every Core finished
// cleanly).
func (w *World) Run(ctx gocontext.Context) error {
	w.mu.Lock()
	cores := append([]*Core(nil), w.cores...)
	w.mu.Unlock()

	runCtx, cancel := gocontext.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	var mu sync.Mutex
	var result error

	for _, core := range cores {
		core := core
		g.Go(func() error {
			err := core.Run(gctx)
			if err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("core %s: %w", core.UID(), err))
				mu.Unlock()
				w.opts.logger.Log(LevelError, "core run aborted", map[string]any{"core": core.UID(), "error": err.Error()})
				cancel()
				return err
			}
			return nil
		})
	}

	_ = g.Wait()
	return result
}
