// Package applog provides the structured logging interface shared across
// the module: a provider-agnostic Logger contract plus a zerolog-backed
// default implementation.
package applog

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field from a key-value pair.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger provides structured logging with context-carried correlation.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, err error, fields ...Field)
	WithFields(fields ...Field) Logger
}

// NoOpLogger discards all log entries.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...Field)          {}
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...Field)           {}
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...Field)           {}
func (n *NoOpLogger) Error(_ context.Context, _ string, _ error, _ ...Field) {}
func (n *NoOpLogger) WithFields(_ ...Field) Logger                          { return n }

type traceIDKey struct{}

// WithTraceID attaches a correlation id to ctx for later retrieval by the
// logger.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func traceIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewZeroLogger builds a Logger writing JSON lines to w at the given minimum
// level. A nil w discards everything, equivalent to NoOpLogger.
func NewZeroLogger(minLevel Level, w io.Writer) *ZeroLogger {
	if w == nil {
		w = io.Discard
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	zl = zl.Level(zerologLevel(minLevel))
	return &ZeroLogger{logger: zl}
}

// NewDefaultZeroLogger writes human-readable console output to stderr at
// info level, the shape expected by the CLI's default configuration.
func NewDefaultZeroLogger() *ZeroLogger {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	zl := zerolog.New(console).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	return &ZeroLogger{logger: zl}
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (z *ZeroLogger) event(ctx context.Context, evt *zerolog.Event, msg string, fields []Field) {
	if traceID := traceIDFrom(ctx); traceID != "" {
		evt = evt.Str("trace_id", traceID)
	}
	for _, f := range fields {
		evt = evt.Interface(f.Key, f.Value)
	}
	evt.Msg(msg)
}

func (z *ZeroLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	z.event(ctx, z.logger.Debug(), msg, fields)
}

func (z *ZeroLogger) Info(ctx context.Context, msg string, fields ...Field) {
	z.event(ctx, z.logger.Info(), msg, fields)
}

func (z *ZeroLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	z.event(ctx, z.logger.Warn(), msg, fields)
}

func (z *ZeroLogger) Error(ctx context.Context, msg string, err error, fields ...Field) {
	evt := z.logger.Error()
	if err != nil {
		evt = evt.Err(err)
	}
	z.event(ctx, evt, msg, fields)
}

func (z *ZeroLogger) WithFields(fields ...Field) Logger {
	ctx := z.logger.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZeroLogger{logger: ctx.Logger()}
}
