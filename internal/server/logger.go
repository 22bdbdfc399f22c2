package server

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger for the given level name. Unknown names
// fall back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
