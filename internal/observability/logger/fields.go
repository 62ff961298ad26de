package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP fields.

// RequestID field for the request id.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method field for the HTTP method.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path field for the request path.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status field for the HTTP status code.
func Status(v int) zap.Field { return zap.Int("status", v) }

// Duration field for elapsed time.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// DurationMs field for elapsed time in milliseconds.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Bytes field for response size.
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// Domain fields.

// Outcome field for the terminal flow outcome (succeeded, failed, cancelled).
func Outcome(v string) zap.Field { return zap.String("outcome", v) }

// UserID field for the subject user id.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// AuthType field for the authentication type tag.
func AuthType(v string) zap.Field { return zap.String("auth_type", v) }

// Endpoint field for a backchannel endpoint URL.
func Endpoint(v string) zap.Field { return zap.String("endpoint", v) }

// System fields.

// Component field for the emitting component.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op field for the current operation.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer field for the layer (handler, backchannel, store).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err field for an error.
func Err(err error) zap.Field { return zap.Error(err) }

// Generic fields.

// String generic string field.
func String(key, v string) zap.Field { return zap.String(key, v) }

// Int generic int field.
func Int(key string, v int) zap.Field { return zap.Int(key, v) }

// Bool generic bool field.
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

// Any generic field for arbitrary values.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
