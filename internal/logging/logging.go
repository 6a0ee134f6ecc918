package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ServiceName is attached to every record so shipped logs can be told apart.
const ServiceName = "siteinspect"

// New builds the process logger and installs it as the slog default.
//
// Records go to stderr and, when logFile is set, are appended to that file
// too. format "text" selects the key=value handler; anything else is JSON.
// Unknown levels fall back to info. The cleanup func closes the log file and
// must be deferred by the caller.
func New(level, format, logFile string) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stderr
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		cleanup = func() { _ = f.Close() }
	}

	logger := slog.New(newHandler(out, format, parseLevel(level))).With("service", ServiceName)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

func newHandler(w io.Writer, format string, lvl slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel accepts the slog level names in any case ("debug", "WARN",
// "info+2").
func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
