package schedsi

import "github.com/joeycumines/schedsi/vtime"

// StatusVariant selects which of the two Core driver strategies a Core
// runs: LocalTimer (every context may own an independent timer) or
// KernelTimerOnly (only the bottom/kernel context may set a timer).
type StatusVariant int

const (
	// LocalTimerVariant: each context may own an independent timer;
	// elapsing a non-kernel timer suspends (but does not finish) the
	// tail above it.
	LocalTimerVariant StatusVariant = iota
	// KernelTimerOnlyVariant: only the kernel (bottom) context may set
	// a timer; Idle from a non-root context or a timer elapsing
	// unwinds the entire tail above the surviving context and discards
	// it (ContextChain.Discard): the computations are dropped, but the
	// threads are not finished and keep their Remaining work.
	KernelTimerOnlyVariant
)

func (v StatusVariant) String() string {
	switch v {
	case LocalTimerVariant:
		return "local_timer"
	case KernelTimerOnlyVariant:
		return "kernel_timer_only"
	default:
		return "unknown"
	}
}

// coreOptions holds configuration options for Core creation.
type coreOptions struct {
	kMax              int
	variant           StatusVariant
	contextSwitchCost func(from, to *Context) vtime.Time
	sink              EventSink
	registry          ThreadRegistry
	logger            Logger
}

// CoreOption configures a Core instance.
type CoreOption interface {
	applyCore(*coreOptions) error
}

// coreOptionImpl implements CoreOption.
type coreOptionImpl struct {
	applyCoreFunc func(*coreOptions) error
}

func (o *coreOptionImpl) applyCore(opts *coreOptions) error {
	return o.applyCoreFunc(opts)
}

// WithKMax overrides the default K_MAX (maximum context-chain depth).
func WithKMax(kMax int) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.kMax = kMax
		return nil
	}}
}

// WithStatusVariant selects the Core driver strategy. Default is
// LocalTimerVariant.
func WithStatusVariant(variant StatusVariant) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.variant = variant
		return nil
	}}
}

// WithContextSwitchCost sets the context_switch_cost function: 0 when
// from and to share a module, a positive constant otherwise. Default is
// a constant 1 unit for any cross-module transition.
func WithContextSwitchCost(fn func(from, to *Context) vtime.Time) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.contextSwitchCost = fn
		return nil
	}}
}

// WithEventSink attaches the EventSink the Core logs observable
// transitions to. Default is a no-op sink.
func WithEventSink(sink EventSink) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.sink = sink
		return nil
	}}
}

// WithThreadRegistry supplies the global ThreadRegistry a Core consults
// to decide its termination condition and idle-advance target.
func WithThreadRegistry(registry ThreadRegistry) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.registry = registry
		return nil
	}}
}

// WithLogger overrides the Logger a Core uses for diagnostics. Default
// is the package-level logger (see SetLogger).
func WithLogger(logger Logger) CoreOption {
	return &coreOptionImpl{func(opts *coreOptions) error {
		opts.logger = logger
		return nil
	}}
}

const defaultKMax = 32

func defaultContextSwitchCost(from, to *Context) vtime.Time {
	if from == nil || to == nil {
		return vtime.Zero
	}
	if from.Thread.ModuleID() == to.Thread.ModuleID() {
		return vtime.Zero
	}
	return vtime.FromInt(1)
}

// resolveCoreOptions applies CoreOption instances to coreOptions.
func resolveCoreOptions(opts []CoreOption) (*coreOptions, error) {
	cfg := &coreOptions{
		kMax:              defaultKMax,
		variant:           LocalTimerVariant,
		contextSwitchCost: defaultContextSwitchCost,
		sink:              NopEventSink{},
		logger:            defaultLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyCore(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// worldOptions holds configuration options for World creation.
type worldOptions struct {
	sink   EventSink
	logger Logger
}

// WorldOption configures a World instance.
type WorldOption interface {
	applyWorld(*worldOptions) error
}

type worldOptionImpl struct {
	applyWorldFunc func(*worldOptions) error
}

func (o *worldOptionImpl) applyWorld(opts *worldOptions) error {
	return o.applyWorldFunc(opts)
}

// WithWorldEventSink attaches the EventSink shared by every Core the
// World drives, unless a Core overrides it with its own WithEventSink.
func WithWorldEventSink(sink EventSink) WorldOption {
	return &worldOptionImpl{func(opts *worldOptions) error {
		opts.sink = sink
		return nil
	}}
}

// WithWorldLogger overrides the Logger the World uses for diagnostics.
func WithWorldLogger(logger Logger) WorldOption {
	return &worldOptionImpl{func(opts *worldOptions) error {
		opts.logger = logger
		return nil
	}}
}

func resolveWorldOptions(opts []WorldOption) (*worldOptions, error) {
	cfg := &worldOptions{
		sink:   NopEventSink{},
		logger: defaultLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyWorld(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
