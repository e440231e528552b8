package middlewares

import (
	"net/http"

	"github.com/thedevkitchen/apigateway/internal/fingerprint"
	apperrors "github.com/thedevkitchen/apigateway/internal/http/errors"
	"github.com/thedevkitchen/apigateway/internal/metrics"
	"github.com/thedevkitchen/apigateway/internal/rate"
)

// RateLimit limita por endpoint+IP usando el limitador compartido.
// Pensado para los endpoints de autenticación, donde el costo de un intento
// es un bcrypt.
func RateLimit(l *rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := fingerprint.FromRequest(r)
			if !l.Allow(r.Context(), r.URL.Path+":"+meta.IP) {
				metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
				apperrors.Write(r.Context(), w, apperrors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
