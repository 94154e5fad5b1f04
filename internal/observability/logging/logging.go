// Package logging provides the slog-based structured logger shared by
// every component, plus a fixed set of field helpers so log lines stay
// consistent across the sanitizer, breaker, procexec, tool, and transport
// layers.
//
// Grounded on the teacher's internal/observability/logging (slog.Handler
// selection, request-scoped logger-in-context), generalized with the
// error_type/target/correlation_id fields this domain needs in place of
// the teacher's runtime field.
package logging

import (
	"log/slog"
	"os"
)

// Mode selects the slog.Handler's output encoding.
type Mode string

const (
	ModeJSON Mode = "json"
	ModeText Mode = "text"
)

// Config configures the root logger.
type Config struct {
	Mode  Mode
	Level slog.Level
}

// New builds the process's root *slog.Logger and installs it as
// slog.Default() so library code that doesn't thread a logger explicitly
// still lands in the right place.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	switch cfg.Mode {
	case ModeText:
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
