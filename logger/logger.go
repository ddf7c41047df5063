package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log attribute.
type Field = zap.Field

// Logger is the minimal structured logger used across the engine.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

func String(k, v string) Field                 { return zap.String(k, v) }
func Int(k string, v int) Field                { return zap.Int(k, v) }
func Float64(k string, v float64) Field        { return zap.Float64(k, v) }
func Bool(k string, v bool) Field              { return zap.Bool(k, v) }
func Time(k string, v time.Time) Field         { return zap.Time(k, v) }
func Duration(k string, v time.Duration) Field { return zap.Duration(k, v) }
func Err(err error) Field                      { return zap.Error(err) }

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func Sync(l Logger) {
	if zl, ok := l.(*zapLogger); ok {
		_ = zl.z.Sync()
	}
}

// NewZapLogger creates a production logger (JSON encoding) at the given
// level ("debug", "info", "warn", "error"); an empty level means info.
func NewZapLogger(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level != "" {
		lvl, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{z: z}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) Logger { return &zapLogger{z: z} }

// NewNop returns a logger that discards everything.
func NewNop() Logger { return &zapLogger{z: zap.NewNop()} }
