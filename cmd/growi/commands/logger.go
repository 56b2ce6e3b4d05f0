package commands

import (
	"context"
	"io"
	"log/slog"
	"sort"
)

// stderrLogger adapts slog to growi.Logger.
type stderrLogger struct {
	logger *slog.Logger
}

func newStderrLogger(writer io.Writer, debug bool) *stderrLogger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	return &stderrLogger{
		logger: slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})),
	}
}

func (l *stderrLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l *stderrLogger) Info(msg string, fields map[string]interface{}) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *stderrLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l *stderrLogger) Error(msg string, fields map[string]interface{}) {
	l.log(slog.LevelError, msg, fields)
}

func (l *stderrLogger) log(level slog.Level, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, fields[key]))
	}

	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
