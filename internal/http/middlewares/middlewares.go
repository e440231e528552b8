// Package middlewares contiene la cadena HTTP del gateway: request id,
// recover, logging, headers, rate limit y la capa bearer de aplicaciones.
package middlewares

import (
	"context"
	"net/http"
)

// Middleware es el tipo estándar de chi.
type Middleware func(http.Handler) http.Handler

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyClientID
)

// RequestIDFrom devuelve el request id inyectado por RequestID.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// ClientIDFrom devuelve el client_id de la aplicación autenticada por
// Bearer.Require; vacío si el request no pasó por esa capa.
func ClientIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyClientID).(string)
	return v
}
