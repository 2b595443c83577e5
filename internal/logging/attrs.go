package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so call sites can stay on the logging package.
type Attr = slog.Attr

// Value aliases slog.Value for helpers that build structured values.
type Value = slog.Value

// Any wraps slog.Any.
func Any(key string, value any) Attr { return slog.Any(key, value) }

// Bool wraps slog.Bool.
func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

// Duration wraps slog.Duration.
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Float64 wraps slog.Float64.
func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

// Int wraps slog.Int.
func Int(key string, value int) Attr { return slog.Int(key, value) }

// Int64 wraps slog.Int64.
func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

// Uint64 wraps slog.Uint64.
func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

// String wraps slog.String.
func String(key, value string) Attr { return slog.String(key, value) }

// Alert tags a record for operator attention in notification pipelines.
func Alert(value string) Attr { return String(FieldAlert, value) }

// Group nests the supplied attributes under a named group.
func Group(key string, attrs ...Attr) Attr {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return slog.Group(key, args...)
}

// Error renders an error attribute with a stable key.
func Error(err error) Attr {
	if err == nil {
		return String("error", "<nil>")
	}
	return String("error", err.Error())
}

// Args converts attrs into the variadic form slog methods accept.
func Args(attrs ...Attr) []any {
	return attrsToArgs(attrs)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// NewNop returns a logger that discards every record. Tests use it to keep
// assertion output quiet.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger scopes a logger to a named component.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey reports whether attrs already carries the given key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, attr := range attrs {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// FieldImpact describes the operational consequence of a warning or error.
const FieldImpact = "impact"

// WarnWithContext logs a warning with event metadata filled in so downstream
// log consumers can route it without parsing the message.
func WarnWithContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...Attr) {
	if logger == nil {
		return
	}
	if !HasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, "warning"))
	}
	if !HasAttrKey(attrs, FieldImpact) {
		attrs = append(attrs, String(FieldImpact, "operation completed with warnings"))
	}
	logger.WarnContext(ctx, msg, attrsToArgs(attrs)...)
}

// ErrorWithContext logs an error with event metadata and a recovery hint.
func ErrorWithContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...Attr) {
	if logger == nil {
		return
	}
	if !HasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, "error"))
	}
	if !HasAttrKey(attrs, FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, "check logs for details"))
	}
	logger.ErrorContext(ctx, msg, attrsToArgs(attrs)...)
}

// NoopHandler implements slog.Handler and drops all records.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler        { return NoopHandler{} }
func (NoopHandler) WithGroup(string) slog.Handler             { return NoopHandler{} }
