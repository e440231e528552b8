package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/thedevkitchen/apigateway/internal/observability/logger"
)

// RequestID asigna (o propaga) un X-Request-Id y deja en el contexto un
// logger ya anotado con él, para que todas las capas logueen correlacionado.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", rid)

		ctx := context.WithValue(r.Context(), ctxKeyRequestID, rid)
		ctx = logger.ToContext(ctx, logger.L().With(logger.RequestID(rid)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
