package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

var (
	defaultLogger = slog.New(slog.DiscardHandler)
	defaultMu     sync.RWMutex
)

type ctxLoggerKey struct{}

// Default returns the process wide logger. It discards everything until
// SetDefault is called by the CLI.
func Default() *slog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process wide logger
func SetDefault(logger *slog.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// New creates a JSON logger writing to w. Mostly used by tests.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// With embeds logger into ctx
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger embedded in ctx, or the default logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}
