package logging

import (
	"io"
	"log/slog"

	"github.com/dot5enko/coltoolbox/config"
)

// New builds the logger described by cfg writing to w.
func New(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {

	level, levelErr := cfg.SlogLevel()
	if levelErr != nil {
		return nil, levelErr
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler), nil
}
