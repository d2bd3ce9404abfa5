package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// SlogLogger implements Logger on top of a structured slog.Logger
type SlogLogger struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogLogger creates a Logger that emits each message as one slog record at info level.
// A nil logger yields NopLogger.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return NopLogger()
	}
	return &SlogLogger{logger: logger, level: slog.LevelInfo}
}

// NewSlogDebugLogger is NewSlogLogger at debug level, for per-job chatter
func NewSlogDebugLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return NopLogger()
	}
	return &SlogLogger{logger: logger, level: slog.LevelDebug}
}

// Printf implements Logger
func (l *SlogLogger) Printf(format string, args ...interface{}) {
	l.logger.Log(context.Background(), l.level, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// NopLogger returns a Logger that discards everything
func NopLogger() Logger {
	return nopLogger{}
}
