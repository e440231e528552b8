package controllers

import (
	"net/http"

	apperrors "github.com/thedevkitchen/apigateway/internal/http/errors"
	"github.com/thedevkitchen/apigateway/internal/store/core"
)

type Health struct {
	repo core.Repository
}

// Livez responde mientras el proceso esté vivo.
func (h *Health) Livez(w http.ResponseWriter, _ *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz verifica que el store responda.
func (h *Health) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		apperrors.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
