package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger returns a JSON logger for format "json" and a text logger
// otherwise.
func NewLogger(format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
