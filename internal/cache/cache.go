// Package cache abstrae el cache compartido del gateway: revocaciones
// recientes y contadores de rate limit. Backends: memoria (proceso único)
// y redis (multi-worker).
package cache

import (
	"context"
	"time"
)

// Client es el contrato mínimo que usan los middlewares y el rate limiter.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr incrementa atómicamente un contador; si la key no existe la crea
	// con el ttl dado. Devuelve el valor post-incremento.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Close() error
}
