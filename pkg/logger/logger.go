// Package logger provides logging implementations for userapi
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/memtensor/userapi/pkg/interfaces"
)

// SlogLogger adapts log/slog to the interfaces.Logger contract
type SlogLogger struct {
	l     *slog.Logger
	level *slog.LevelVar
}

// ParseLevel maps a textual level to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger that writes text records at or above level to w
func New(w io.Writer, level string) *SlogLogger {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(level))
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
	return &SlogLogger{l: slog.New(handler), level: lv}
}

// SetLevel changes the minimum level for this logger and every child derived from it
func (s *SlogLogger) SetLevel(level string) {
	s.level.Set(ParseLevel(level))
}

// NewConsoleLogger creates a new console logger
func NewConsoleLogger(level string) interfaces.Logger {
	return New(os.Stdout, level)
}

// NewTestLogger creates a logger for testing that discards everything
func NewTestLogger() interfaces.Logger {
	return New(io.Discard, "debug")
}

// Debug logs debug level messages
func (s *SlogLogger) Debug(msg string, fields ...map[string]interface{}) {
	s.log(slog.LevelDebug, msg, nil, fields)
}

// Info logs info level messages
func (s *SlogLogger) Info(msg string, fields ...map[string]interface{}) {
	s.log(slog.LevelInfo, msg, nil, fields)
}

// Warn logs warning level messages
func (s *SlogLogger) Warn(msg string, fields ...map[string]interface{}) {
	s.log(slog.LevelWarn, msg, nil, fields)
}

// Error logs error level messages
func (s *SlogLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	s.log(slog.LevelError, msg, err, fields)
}

// Fatal logs at error level and exits
func (s *SlogLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	s.Error(msg, err, fields...)
	os.Exit(1)
}

// WithFields returns a child logger that always carries fields
func (s *SlogLogger) WithFields(fields map[string]interface{}) interfaces.Logger {
	return &SlogLogger{l: s.l.With(attrs(fields)...), level: s.level}
}

func (s *SlogLogger) log(level slog.Level, msg string, err error, fields []map[string]interface{}) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}

	var args []any
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	for _, f := range fields {
		args = append(args, attrs(f)...)
	}
	s.l.Log(ctx, level, msg, args...)
}

// attrs converts a field map into slog attributes in key order so output is stable
func attrs(fields map[string]interface{}) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}

var _ interfaces.Logger = (*SlogLogger)(nil)
