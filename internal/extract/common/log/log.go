package log

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global Logger = newZapLogger(zapcore.Lock(os.Stderr), false, zapcore.InfoLevel) // prod/info until Configure runs

// SetLogger replaces the global logger instance.
// Useful for testing or overriding behavior.
func SetLogger(l Logger) {
	global = l
}

// GetLogger returns the current global logger instance.
func GetLogger() Logger {
	return global
}

// Logger defines the burp2fs logging interface. Fields are structured
// key/value pairs attached to the message.
type Logger interface {
	Info(fields map[string]any, msg string)
	Error(fields map[string]any, msg string)
	Debug(fields map[string]any, msg string)
	Warn(fields map[string]any, msg string)
	Panic(fields map[string]any, msg string)
	Fatal(fields map[string]any, msg string)
}

// New builds a zap-backed Logger writing to stderr without touching the global
// instance. env "prod" selects JSON output; anything else selects colored
// console output.
func New(env, level string) (Logger, error) {
	return NewWithWriter(os.Stderr, env, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, env, level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return newZapLogger(zapcore.AddSync(w), env != "prod", lvl), nil
}

// Configure sets up the global logger based on env and level.
func Configure(env, level string) error {
	l, err := New(env, level)
	if err != nil {
		return err
	}
	global = l
	return nil
}

// Info logs at info level using the global logger.
func Info(fields map[string]any, msg string) { global.Info(fields, msg) }

// Error logs at error level using the global logger.
func Error(fields map[string]any, msg string) { global.Error(fields, msg) }

// Debug logs at debug level using the global logger.
func Debug(fields map[string]any, msg string) { global.Debug(fields, msg) }

// Warn logs at warn level using the global logger.
func Warn(fields map[string]any, msg string) { global.Warn(fields, msg) }

// Panic logs at panic level using the global logger.
func Panic(fields map[string]any, msg string) { global.Panic(fields, msg) }

// Fatal logs at fatal level using the global logger.
func Fatal(fields map[string]any, msg string) { global.Fatal(fields, msg) }

// zapLogger implements Logger using Uber's zap.
type zapLogger struct {
	base *zap.Logger
}

// newZapLogger returns a logger writing to out, encoded for dev (console) or
// prod (JSON), filtered at level.
func newZapLogger(out zapcore.WriteSyncer, dev bool, level zapcore.Level) Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.MessageKey = "msg"
	enc.LevelKey = "level"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if dev {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	} else {
		encoder = zapcore.NewJSONEncoder(enc)
	}
	core := zapcore.NewCore(encoder, out, zap.NewAtomicLevelAt(level))
	return &zapLogger{base: zap.New(core, zap.ErrorOutput(out))}
}

func (l *zapLogger) Info(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Info(msg)
}

func (l *zapLogger) Error(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Error(msg)
}

func (l *zapLogger) Debug(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Debug(msg)
}

func (l *zapLogger) Warn(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Warn(msg)
}

func (l *zapLogger) Panic(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Panic(msg)
}

func (l *zapLogger) Fatal(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Fatal(msg)
}

// zapFields converts a field map to zap fields, ordered by key so lines for the
// same event always read the same.
func zapFields(m map[string]any) []zap.Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fields := make([]zap.Field, 0, len(m))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, m[k]))
	}
	return fields
}

// noopLogger discards everything.
type noopLogger struct{}

func (n *noopLogger) Info(map[string]any, string)  {}
func (n *noopLogger) Error(map[string]any, string) {}
func (n *noopLogger) Debug(map[string]any, string) {}
func (n *noopLogger) Warn(map[string]any, string)  {}
func (n *noopLogger) Panic(map[string]any, string) {}
func (n *noopLogger) Fatal(map[string]any, string) {}

// NewNoopLogger returns a Logger that discards all log messages.
func NewNoopLogger() Logger {
	return &noopLogger{}
}
