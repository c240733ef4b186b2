// Package ecslog defines the logging sink used by the ECS runtime.
package ecslog

// Level orders log severities. Trace sits below Debug.
type Level int

const (
	LevelTrace Level = iota - 2
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is a leveled sink taking a message and alternating key-value pairs.
// Callers on hot paths check Enabled before building their arguments.
type Logger interface {
	Enabled(level Level) bool
	Trace(msg string, keyValues ...any)
	Debug(msg string, keyValues ...any)
	Info(msg string, keyValues ...any)
	Warn(msg string, keyValues ...any)
	Error(msg string, keyValues ...any)
}

// Binder is implemented by loggers that can attach fields once instead of on
// every call.
type Binder interface {
	With(keyValues ...any) Logger
}

type nop struct{}

func (nop) Enabled(Level) bool   { return false }
func (nop) Trace(string, ...any) {}
func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop discards everything.
var Nop Logger = nop{}

type withLogger struct {
	logger    Logger
	keyValues []any
}

// With returns a Logger that adds keyValues to every call. Loggers
// implementing Binder bind them themselves.
func With(logger Logger, keyValues ...any) Logger {
	if len(keyValues) == 0 {
		return logger
	}
	if _, ok := logger.(nop); ok {
		return logger
	}
	if b, ok := logger.(Binder); ok {
		return b.With(keyValues...)
	}
	if w, ok := logger.(*withLogger); ok {
		kv := make([]any, 0, len(w.keyValues)+len(keyValues))
		kv = append(kv, w.keyValues...)
		kv = append(kv, keyValues...)
		return &withLogger{logger: w.logger, keyValues: kv}
	}
	return &withLogger{logger: logger, keyValues: keyValues}
}

func (w *withLogger) merge(keyValues []any) []any {
	kv := make([]any, 0, len(w.keyValues)+len(keyValues))
	kv = append(kv, w.keyValues...)
	return append(kv, keyValues...)
}

func (w *withLogger) Enabled(level Level) bool { return w.logger.Enabled(level) }

func (w *withLogger) Trace(msg string, keyValues ...any) {
	if w.logger.Enabled(LevelTrace) {
		w.logger.Trace(msg, w.merge(keyValues)...)
	}
}

func (w *withLogger) Debug(msg string, keyValues ...any) {
	if w.logger.Enabled(LevelDebug) {
		w.logger.Debug(msg, w.merge(keyValues)...)
	}
}

func (w *withLogger) Info(msg string, keyValues ...any) {
	if w.logger.Enabled(LevelInfo) {
		w.logger.Info(msg, w.merge(keyValues)...)
	}
}

func (w *withLogger) Warn(msg string, keyValues ...any) {
	if w.logger.Enabled(LevelWarn) {
		w.logger.Warn(msg, w.merge(keyValues)...)
	}
}

func (w *withLogger) Error(msg string, keyValues ...any) {
	if w.logger.Enabled(LevelError) {
		w.logger.Error(msg, w.merge(keyValues)...)
	}
}
