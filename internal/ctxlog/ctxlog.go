// Package ctxlog provides a context key for safely passing a slog.Logger
// instance through context.Context, plus the CRITICAL level used by agents
// for terminal failures.
package ctxlog

import (
	"context"
	"log/slog"
)

// LevelCritical sits above slog.LevelError. Agents log terminal failures
// (registration failed, client chain failed) at this level.
const LevelCritical = slog.Level(12)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

// loggerKey is the key for the slog.Logger in a context.Context.
var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. It panics if no
// logger was attached, since every entrypoint is expected to install one.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}

// Critical logs msg at LevelCritical.
func Critical(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelCritical, msg, args...)
}

// ReplaceLevelName renders LevelCritical as "CRITICAL" instead of slog's
// default "ERROR+4". It is meant to be used as HandlerOptions.ReplaceAttr.
func ReplaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level >= LevelCritical {
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}

// LevelForVerbosity maps an agent's integer verbosity onto a slog level:
// negative values only show warnings and above, 0 is info and anything
// greater is debug.
func LevelForVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity < 0:
		return slog.LevelWarn
	case verbosity == 0:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// LevelHandler filters records below a fixed minimum level and passes the
// rest to the wrapped handler, regardless of the wrapped handler's own level.
type LevelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

// NewLevelHandler returns a LevelHandler. Wrapping a LevelHandler replaces its
// level instead of nesting.
func NewLevelHandler(level slog.Leveler, h slog.Handler) *LevelHandler {
	if lh, ok := h.(*LevelHandler); ok {
		h = lh.handler
	}
	return &LevelHandler{level: level, handler: h}
}

func (h *LevelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LevelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewLevelHandler(h.level, h.handler.WithAttrs(attrs))
}

func (h *LevelHandler) WithGroup(name string) slog.Handler {
	return NewLevelHandler(h.level, h.handler.WithGroup(name))
}
