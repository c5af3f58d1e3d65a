// Package logging configures the emulator's structured logger. Verbosity is
// selected via the RV32_LOG environment variable, generalizing an on/off
// debug gate into slog's leveled model.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Levels recognized in RV32_LOG, from least to most verbose.
const (
	LevelTrace = slog.Level(-8)
)

// New returns a logger at the level named by levelName (trace/debug/info/
// warn/error, case-insensitive). An empty or unrecognized value defaults to
// "info". Output goes to w; pass os.Stderr for CLI use so guest stdout
// (ecall print_*) and emulator diagnostics never interleave.
func New(w io.Writer, levelName string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(levelName)})
	return slog.New(handler)
}

// FromEnv builds a logger from the RV32_LOG environment variable.
func FromEnv(w io.Writer) *slog.Logger {
	return New(w, os.Getenv("RV32_LOG"))
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
