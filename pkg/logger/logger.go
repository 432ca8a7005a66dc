// Package logger is the structured logging facade used by the scan packages.
// The host's zerolog logger sits behind it; tests use Nop.
package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value any
}

// Attr returns a Field.
func Attr(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err returns the error message under "err_msg". A nil error logs an empty
// message.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "err_msg", Value: ""}
	}
	return Field{Key: "err_msg", Value: err.Error()}
}

type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	// With returns a child logger that adds fields to every line.
	With(fields ...Field) Logger
}

// NewFromZerolog adapts the host's enhanced logger.
func NewFromZerolog(zl *zerolog.Logger) Logger {
	if zl == nil {
		nop := zerolog.Nop()
		zl = &nop
	}
	return &zerologLogger{zl: zl}
}

type zerologLogger struct {
	zl *zerolog.Logger
}

func (z *zerologLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	z.log(ctx, zerolog.DebugLevel, msg, fields)
}

func (z *zerologLogger) Info(ctx context.Context, msg string, fields ...Field) {
	z.log(ctx, zerolog.InfoLevel, msg, fields)
}

func (z *zerologLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	z.log(ctx, zerolog.WarnLevel, msg, fields)
}

func (z *zerologLogger) Error(ctx context.Context, msg string, fields ...Field) {
	z.log(ctx, zerolog.ErrorLevel, msg, fields)
}

func (z *zerologLogger) With(fields ...Field) Logger {
	child := z.zl.With().Fields(toMap(fields)).Logger()
	return &zerologLogger{zl: &child}
}

func (z *zerologLogger) log(ctx context.Context, level zerolog.Level, msg string, fields []Field) {
	z.zl.WithLevel(level).Ctx(ctx).Fields(toMap(fields)).Msg(msg)
}

func toMap(fields []Field) map[string]any {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

// Nop discards everything.
func Nop() Logger {
	return nop{}
}

type nop struct{}

func (nop) Debug(context.Context, string, ...Field) {}
func (nop) Info(context.Context, string, ...Field)  {}
func (nop) Warn(context.Context, string, ...Field)  {}
func (nop) Error(context.Context, string, ...Field) {}
func (n nop) With(...Field) Logger                  { return n }
