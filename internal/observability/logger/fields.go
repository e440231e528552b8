package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar para mantener nombres consistentes entre capas.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}
func Bytes(v int) zap.Field     { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field {
	return zap.String("user_agent", v)
}

func UserID(v string) zap.Field    { return zap.String("user_id", v) }
func ClientID(v string) zap.Field  { return zap.String("client_id", v) }
func SessionID(v string) zap.Field { return zap.String("session_id", v) }
func Email(v string) zap.Field     { return zap.String("email", v) }

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Reason(v string) zap.Field    { return zap.String("reason", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
