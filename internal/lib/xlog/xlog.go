// Package xlog wires up the process-wide slog default.
package xlog

import (
	"context"
	"log/slog"
	"os"
)

// Setup configures the default logger: debug-level text on stderr when
// debug is on, everything discarded otherwise.
func Setup(debug bool) {
	if debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(DisabledLogger)
	}
}

var DisabledLogger = slog.New(DisabledLogHandler{})

type DisabledLogHandler struct{}

func (d DisabledLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (d DisabledLogHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (d DisabledLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return d
}

func (d DisabledLogHandler) WithGroup(name string) slog.Handler {
	return d
}
