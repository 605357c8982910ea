package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the process logger for env. Production logs JSON,
// everything else logs text. LOG_LEVEL may be debug, info, warn or error
// (default info).
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env, os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, env, levelName string) *slog.Logger {
	level := slog.LevelInfo
	if levelName != "" {
		if err := level.UnmarshalText([]byte(strings.TrimSpace(levelName))); err != nil {
			level = slog.LevelInfo
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" {
		opts.AddSource = true
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", "conferencecentral", "env", env)
}
