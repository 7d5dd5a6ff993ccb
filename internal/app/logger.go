package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production runs emit JSON at info
// level; development runs get readable text with debug enabled.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}
	if cfg.IsProduction() {
		opts.Level = slog.LevelInfo
	}
	if cfg.IsProduction() || (cfg != nil && cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
