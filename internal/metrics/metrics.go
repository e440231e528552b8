// Package metrics expone los contadores Prometheus del gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apigateway",
		Name:      "tokens_issued_total",
		Help:      "Access tokens emitidos, por tipo de grant.",
	}, []string{"grant"})

	TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "apigateway",
		Name:      "tokens_revoked_total",
		Help:      "Tokens revocados explícitamente.",
	})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apigateway",
		Name:      "login_attempts_total",
		Help:      "Intentos de login, por resultado.",
	}, []string{"outcome"}) // success | invalid_credentials | inactive | rate_limited

	SessionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apigateway",
		Name:      "session_rejections_total",
		Help:      "Validaciones de sesión rechazadas, por causa.",
	}, []string{"reason"}) // not_found | inactive | token_invalid | uid_mismatch | fingerprint_mismatch

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apigateway",
		Name:      "http_requests_total",
		Help:      "Requests HTTP servidos.",
	}, []string{"method", "path", "status"})
)

// Handler devuelve el handler de /metrics.
func Handler() http.Handler { return promhttp.Handler() }
