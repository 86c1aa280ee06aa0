package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Field is a structured logging attribute.
type Field struct {
	Key   string
	Value any
}

// Convenience helpers for common field types.
func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

// Logger is a small structured logging interface backed by slog. Mission
// components depend on this rather than a concrete logger so tests can use
// Noop and alternate backends stay possible.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Config controls basic logger behaviour.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// New constructs a Logger backed by slog with the provided config.
func New(cfg Config) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return &slogger{l: slog.New(handler)}
}

// NewFromEnv constructs a logger using LOG_LEVEL and LOG_FORMAT environment
// variables, defaulting to a human-readable text handler at info level.
func NewFromEnv() Logger {
	return New(Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

// Noop returns a logger that drops all logs.
func Noop() Logger { return noopLogger{} }

type slogger struct {
	l *slog.Logger
}

func (s *slogger) With(fields ...Field) Logger {
	return &slogger{l: s.l.With(toArgs(fields...)...)}
}

func (s *slogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, toArgs(fields...)...) }
func (s *slogger) Info(msg string, fields ...Field)  { s.l.Info(msg, toArgs(fields...)...) }
func (s *slogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, toArgs(fields...)...) }
func (s *slogger) Error(msg string, fields ...Field) { s.l.Error(msg, toArgs(fields...)...) }

func toArgs(fields ...Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}
func (noopLogger) With(...Field) Logger   { return noopLogger{} }
