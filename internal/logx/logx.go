// Package logx wires every component's log output through a single
// structured logger, grounded in the teacher's use of component-scoped
// loggers rather than bare fmt.Println calls scattered through device code.
package logx

import (
	"log/slog"
	"os"
)

var base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLevel adjusts the minimum level every component logger emits at.
func SetLevel(level slog.Level) {
	base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// For returns a logger scoped to one component name (e.g. "bus", "vga"),
// attached as a "component" attribute on every record it emits.
func For(component string) *slog.Logger {
	return base.With("component", component)
}
