// Package slogadapter backs ecslog.Logger with a *slog.Logger.
package slogadapter

import (
	"context"
	"log/slog"

	"github.com/plus3/colecs/ecs/ecslog"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.Level(-8)

// Adapter forwards ecslog calls to a slog.Logger.
type Adapter struct {
	logger *slog.Logger
}

// New wraps logger.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

func level(l ecslog.Level) slog.Level {
	switch l {
	case ecslog.LevelTrace:
		return LevelTrace
	case ecslog.LevelDebug:
		return slog.LevelDebug
	case ecslog.LevelInfo:
		return slog.LevelInfo
	case ecslog.LevelWarn:
		return slog.LevelWarn
	}
	return slog.LevelError
}

// Enabled reports whether the underlying handler accepts l.
func (a *Adapter) Enabled(l ecslog.Level) bool {
	return a.logger.Enabled(context.Background(), level(l))
}

// With binds keyValues into the underlying slog.Logger once.
func (a *Adapter) With(keyValues ...any) ecslog.Logger {
	return &Adapter{logger: a.logger.With(keyValues...)}
}

func (a *Adapter) Trace(msg string, keysAndValues ...any) {
	a.logger.Log(context.Background(), LevelTrace, msg, keysAndValues...)
}

func (a *Adapter) Debug(msg string, keysAndValues ...any) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a *Adapter) Info(msg string, keysAndValues ...any) {
	a.logger.Info(msg, keysAndValues...)
}

func (a *Adapter) Warn(msg string, keysAndValues ...any) {
	a.logger.Warn(msg, keysAndValues...)
}

func (a *Adapter) Error(msg string, keysAndValues ...any) {
	a.logger.Error(msg, keysAndValues...)
}
