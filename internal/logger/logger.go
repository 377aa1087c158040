// Package logger wraps a process-wide zap logger. Messages accept a context
// so the active OpenTelemetry span's trace and span IDs land on every line.
package logger

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the global logger from LOG_LEVEL (DEBUG/INFO/WARN/ERROR) and
// LOG_FORMAT (json or console).
func Init() error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(getEnvOrDefault("LOG_LEVEL", "INFO")))
	cfg.Encoding = parseFormat(getEnvOrDefault("LOG_FORMAT", "json"))
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	global = l.Sugar()
	return nil
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = global.Sync()
}

func Debug(ctx context.Context, msg string, kv ...any) {
	global.Debugw(msg, withTrace(ctx, kv)...)
}

func Info(ctx context.Context, msg string, kv ...any) {
	global.Infow(msg, withTrace(ctx, kv)...)
}

func Warn(ctx context.Context, msg string, kv ...any) {
	global.Warnw(msg, withTrace(ctx, kv)...)
}

func Error(ctx context.Context, msg string, kv ...any) {
	global.Errorw(msg, withTrace(ctx, kv)...)
}

// ErrorWithErr logs an error and records it on the active span.
func ErrorWithErr(ctx context.Context, msg string, err error, kv ...any) {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	global.Errorw(msg, withTrace(ctx, append([]any{"error", err}, kv...))...)
}

func withTrace(ctx context.Context, kv []any) []any {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return kv
	}
	return append([]any{
		"trace_id", span.SpanContext().TraceID().String(),
		"span_id", span.SpanContext().SpanID().String(),
	}, kv...)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func parseFormat(format string) string {
	if format == "console" {
		return "console"
	}
	return "json"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
