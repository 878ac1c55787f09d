package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/keponer/cardmarket-card-finder/pkg/config"

	"github.com/lmittmann/tint"
)

// ParseLevel maps debug, info, warn and error (any case) to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// New builds a logger writing to w: tint's colored handler when color is
// on, slog's text handler otherwise.
func New(conf config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(conf.Level)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	if conf.Color {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler), nil
}

// Setup builds the logger and installs it as the slog default.
func Setup(conf config.LogConfig, w io.Writer) error {
	logger, err := New(conf, w)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
