package middlewares

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	apperrors "github.com/thedevkitchen/apigateway/internal/http/errors"
	"github.com/thedevkitchen/apigateway/internal/observability/logger"
)

// Recover convierte un panic en 500 con stack en el log. El proceso sigue.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				apperrors.Write(r.Context(), w, apperrors.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
