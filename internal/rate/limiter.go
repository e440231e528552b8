// Package rate implementa un limitador de ventana fija sobre el cache
// compartido, para frenar fuerza bruta en los endpoints de autenticación.
package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/thedevkitchen/apigateway/internal/cache"
)

type Limiter struct {
	cache  cache.Client
	max    int64
	window time.Duration
}

func NewLimiter(c cache.Client, max int, window time.Duration) *Limiter {
	return &Limiter{cache: c, max: int64(max), window: window}
}

// Allow registra un hit de key (típicamente endpoint+IP) y devuelve false si
// la ventana actual superó el máximo. Si el cache falla, deja pasar: el
// limitador protege contra abuso, no es una dependencia dura.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	k := fmt.Sprintf("rate:%s:%d", key, bucket)
	n, err := l.cache.Incr(ctx, k, l.window)
	if err != nil {
		return true
	}
	return n <= l.max
}
