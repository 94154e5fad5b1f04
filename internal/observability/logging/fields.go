package logging

import "log/slog"

// Fixed field helpers shared by every package that logs. Keeping these as
// functions instead of ad hoc slog.String calls keeps key names consistent
// across the sanitizer, tool, and transport layers.

// Tool identifies the tool class an execution or log line concerns.
func Tool(name string) slog.Attr { return slog.String("tool", name) }

// Target is the (already-authorized or rejected) target string.
func Target(target string) slog.Attr { return slog.String("target", target) }

// CorrelationID identifies one request end-to-end.
func CorrelationID(id string) slog.Attr { return slog.String("correlation_id", id) }

// ErrorType is the taxonomy classification, logged as its string value.
func ErrorType(t string) slog.Attr { return slog.String("error_type", t) }

// RequestID identifies one HTTP/stdio request, independent of the
// caller-supplied correlation_id (useful when correlation_id is absent).
func RequestID(id string) slog.Attr { return slog.String("request_id", id) }

// DurationMs logs a duration in milliseconds; the project never mixes
// duration_ms with duration_ns/duration_s in the same log line.
func DurationMs(ms int64) slog.Attr { return slog.Int64("duration_ms", ms) }

// Err normalizes an error to its message string; nil logs as null.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}
	return slog.String("error", err.Error())
}

// ---- Generic helpers, for call sites with no fixed field of their own ----

// Bool adds an arbitrary boolean field.
func Bool(key string, v bool) slog.Attr { return slog.Bool(key, v) }

// Int adds an arbitrary int field.
func Int(key string, v int) slog.Attr { return slog.Int(key, v) }

// Int64 adds an arbitrary int64 field.
func Int64(key string, v int64) slog.Attr { return slog.Int64(key, v) }

// String adds an arbitrary string field.
func String(key, v string) slog.Attr { return slog.String(key, v) }
