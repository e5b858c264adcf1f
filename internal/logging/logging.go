// Package logging builds the service's slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/runixer/botapi/internal/config"
)

// Logger is a JSON slog logger plus the rotating file it may write to.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// New builds a JSON logger from cfg. An unknown level falls back to info
// with a warning. When cfg.File is set, records go to stdout and to a
// rotating file.
func New(cfg config.LogConfig) (*Logger, error) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg config.LogConfig, stdout io.Writer) (*Logger, error) {
	var level slog.Level
	levelErr := level.UnmarshalText([]byte(cfg.Level))
	if levelErr != nil {
		level = slog.LevelInfo
	}

	out := stdout
	var file *lumberjack.Logger
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(stdout, file)
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	if levelErr != nil {
		logger.Warn("invalid log level, falling back to info", "level", cfg.Level)
	}
	return &Logger{Logger: logger, file: file}, nil
}

// Close closes the rotating file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
