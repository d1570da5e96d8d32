// pkg/logger/logger.go

package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	traceIDKey   contextKey = "trace_id"
	requestIDKey contextKey = "request_id"
)

// Config describes how to initialise the zap logger.
// Level   — "debug" | "info" | "warn" | "error" (default "info")
// DevMode — true → human-readable console output, otherwise JSON.
type Config struct {
	Level   string `mapstructure:"level"`
	DevMode bool   `mapstructure:"dev_mode"`
}

func (c *Config) applyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c Config) validate() error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("logger: invalid level %q: %w", c.Level, err)
	}
	return nil
}

// Logger is a thin wrapper around *zap.Logger.
type Logger struct {
	raw *zap.Logger
}

// New builds a Logger from cfg. Call Sync() before the process exits.
func New(cfg Config) (*Logger, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	zapCfg := buildZapConfig(cfg.DevMode)
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logger: build zap: %w", err)
	}
	return &Logger{raw: zl}, nil
}

// buildZapConfig keeps the same field keys in dev and prod so that log
// pipelines do not need two parsers.
func buildZapConfig(dev bool) zap.Config {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		ec := &cfg.EncoderConfig
		ec.TimeKey = "ts"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.CallerKey = "caller"
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		return cfg
	}

	prod := zap.NewProductionConfig()
	prod.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}

	ec := &prod.EncoderConfig
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.CallerKey = "caller"
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	ec.StacktraceKey = "stacktrace"

	return prod
}

// Sync flushes buffered entries (errors are ignored).
func (l *Logger) Sync() { _ = l.raw.Sync() }

// Named returns a sub-logger with a name prefix.
func (l *Logger) Named(name string) *Logger {
	return &Logger{raw: l.raw.Named(name)}
}

// WithContext attaches trace_id and request_id fields from ctx, if present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := make([]zap.Field, 0, 2)
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		fields = append(fields, zap.String(string(traceIDKey), v))
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		fields = append(fields, zap.String(string(requestIDKey), v))
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{raw: l.raw.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.raw.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.raw.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.raw.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.raw.Error(msg, fields...) }

// ContextWithTraceID returns a new context carrying the given trace ID.
func ContextWithTraceID(ctx context.Context, tid string) context.Context {
	return context.WithValue(ctx, traceIDKey, tid)
}

// ContextWithRequestID returns a new context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}
