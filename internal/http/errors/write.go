package errors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/thedevkitchen/apigateway/internal/observability/logger"
)

// WriteJSON serializa v con status. Un fallo acá ya no tiene arreglo: solo
// se loguea.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("write response", zap.Error(err))
	}
}

// Write serializa un AppError con el envelope de los endpoints de usuario:
// {"error": {"status": 401, "message": "Invalid credentials"}}.
// El detalle server-side se loguea, nunca viaja al cliente.
func Write(ctx context.Context, w http.ResponseWriter, e *AppError) {
	logAppError(ctx, e)
	WriteJSON(w, e.HTTPStatus, map[string]any{
		"error": map[string]any{
			"status":  e.HTTPStatus,
			"message": e.Message,
		},
	})
}

// WriteOAuth serializa un AppError con el formato plano de los endpoints
// OAuth: {"error": "invalid_client"}.
func WriteOAuth(ctx context.Context, w http.ResponseWriter, e *AppError) {
	logAppError(ctx, e)
	WriteJSON(w, e.HTTPStatus, map[string]string{"error": e.Code})
}

func logAppError(ctx context.Context, e *AppError) {
	fields := []zap.Field{
		zap.String("code", e.Code),
		zap.Int("status", e.HTTPStatus),
	}
	if e.Detail != "" {
		fields = append(fields, zap.String("detail", e.Detail))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	log := logger.From(ctx)
	if e.HTTPStatus >= 500 {
		log.Error("request failed", fields...)
	} else {
		log.Info("request rejected", fields...)
	}
}

// ReadJSON decodea el body en dst con límite de tamaño. Un body vacío no es
// error: los handlers validan campos requeridos después.
func ReadJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
