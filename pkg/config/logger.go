package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
	"github.com/mattn/go-isatty"
)

var ErrInvalidLogLevel = errors.New("invalid log level")

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidLogLevel, level)
	}
}

// InitLogger builds the process logger on stdout and installs it as the slog default.
func InitLogger(level string) (*slog.Logger, error) {
	w := os.Stdout
	logger, err := NewLogger(w, level, isatty.IsTerminal(w.Fd()))
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// NewLogger writes colored development output when pretty is set, JSON otherwise.
func NewLogger(w io.Writer, level string, pretty bool) (*slog.Logger, error) {
	parsedLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: parsedLevel}

	var handler slog.Handler
	if pretty {
		handler = devslog.NewHandler(w, &devslog.Options{HandlerOptions: opts})
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler), nil
}
