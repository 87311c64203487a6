// Package logging wraps zap with request-scoped fields carried on a context.
package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file created inside the log directory.
const FileName = "ccount.log"

type loggerKey struct{}

type requestIDKey struct{}

const requestID = "request_id"

// Logger adds the request id found on ctx to every entry.
type Logger struct {
	l *zap.Logger
}

// New wraps zapLogger. A nil zapLogger discards everything.
func New(zapLogger *zap.Logger) *Logger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	return &Logger{zapLogger}
}

// ContextWithLogger stores logger on ctx.
func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetFromContext returns the logger stored by [ContextWithLogger].
func GetFromContext(ctx context.Context) (*Logger, bool) {
	logger, ok := ctx.Value(loggerKey{}).(*Logger)

	return logger, ok
}

// FromContext returns the logger on ctx, or a no-op logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := GetFromContext(ctx); ok {
		return logger
	}

	return New(nil)
}

// ContextWithRequestID stores id on ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by [ContextWithRequestID].
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)

	return id, ok && id != ""
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Debug(msg, fieldsWithRequestID(ctx, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Info(msg, fieldsWithRequestID(ctx, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Warn(msg, fieldsWithRequestID(ctx, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Error(msg, fieldsWithRequestID(ctx, fields)...)
}

func fieldsWithRequestID(ctx context.Context, fields []zap.Field) []zap.Field {
	if id, ok := RequestID(ctx); ok {
		fields = append(fields, zap.String(requestID, id))
	}

	return fields
}

// NewFile returns a JSON logger appending to dir/[FileName], creating dir if
// needed. The returned close func syncs and closes the file.
func NewFile(dir string, level zapcore.Level) (*zap.Logger, func() error, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, FileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level)
	logger := zap.New(core)

	closeFn := func() error {
		_ = logger.Sync()

		return f.Close()
	}

	return logger, closeFn, nil
}
