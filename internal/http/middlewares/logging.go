package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/thedevkitchen/apigateway/internal/fingerprint"
	"github.com/thedevkitchen/apigateway/internal/metrics"
	"github.com/thedevkitchen/apigateway/internal/observability/logger"
)

// Logging emite una línea por request y alimenta el contador Prometheus.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		meta := fingerprint.FromRequest(r)
		logger.From(r.Context()).Info("http request",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(ww.Status()),
			logger.Duration(time.Since(start)),
			logger.Bytes(ww.BytesWritten()),
			logger.ClientIP(meta.IP),
			logger.UserAgent(meta.UserAgent),
		)
		metrics.HTTPRequests.WithLabelValues(
			r.Method, r.URL.Path, strconv.Itoa(ww.Status())).Inc()
	})
}
