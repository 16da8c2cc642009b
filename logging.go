package schedsi

import (
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel mirrors zerolog's level ordering so callers never need to
// import zerolog directly just to configure verbosity.
type LogLevel int8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger is the structured logging interface the Core and World use for
// diagnostics (never for the event stream itself — that is EventSink's
// job). It is deliberately thin: one Log call that takes the severity
// as an argument, plus With, so any backend (zerolog, a test recorder,
// a no-op) can implement it without adapting to a richer facade.
type Logger interface {
	// With returns a Logger enriched with the given key/value pairs,
	// attached to every subsequent entry it emits.
	With(fields map[string]any) Logger
	// Log emits one structured entry at the given level.
	Log(level LogLevel, msg string, fields map[string]any)
}

// zerologLogger is the default Logger, backed by rs/zerolog.
type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger as a schedsi.Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{logger: l}
}

func (z *zerologLogger) With(fields map[string]any) Logger {
	ctx := z.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &zerologLogger{logger: ctx.Logger()}
}

func (z *zerologLogger) Log(level LogLevel, msg string, fields map[string]any) {
	ev := z.logger.WithLevel(level.zerolog())
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// nopLogger discards everything; it is the package default so that
// simulations run silently unless a caller opts in via SetLogger or
// WithLogger/WithWorldLogger.
type nopLogger struct{}

func (nopLogger) With(map[string]any) Logger           { return nopLogger{} }
func (nopLogger) Log(LogLevel, string, map[string]any) {}

// NewNopLogger returns a Logger that discards every entry.
func NewNopLogger() Logger { return nopLogger{} }

var globalLogger struct {
	sync.RWMutex
	logger Logger
}

// SetLogger installs the package-level default Logger, used by any Core
// or World that was not constructed with an explicit WithLogger /
// WithWorldLogger option.
func SetLogger(l Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = l
}

func defaultLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return nopLogger{}
}
