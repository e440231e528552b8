package controllers

import (
	"net/http"

	"github.com/thedevkitchen/apigateway/internal/fingerprint"
	apperrors "github.com/thedevkitchen/apigateway/internal/http/errors"
	"github.com/thedevkitchen/apigateway/internal/http/dto"
	"github.com/thedevkitchen/apigateway/internal/session"
)

// Users maneja los endpoints de sesión de usuario. Corren detrás de la capa
// bearer: una aplicación válida ya fue establecida.
type Users struct {
	sessions *session.Manager
}

// Login implementa POST /users/login.
func (u *Users) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := apperrors.ReadJSON(r, &req); err != nil {
		apperrors.Write(r.Context(), w, apperrors.ErrBadJSON.WithCause(err))
		return
	}

	res, appErr := u.sessions.Login(r.Context(), req.Email, req.Password, fingerprint.FromRequest(r))
	if appErr != nil {
		apperrors.Write(r.Context(), w, appErr)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		SessionID: res.SessionID,
		User:      dto.UserFrom(res.User),
	})
}

// Me implementa POST /me: valida la sesión del header X-Session-Id y
// devuelve el usuario dueño de la fila.
func (u *Users) Me(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get("X-Session-Id")

	user, appErr := u.sessions.Validate(r.Context(), sid, fingerprint.FromRequest(r))
	if appErr != nil {
		apperrors.Write(r.Context(), w, appErr)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, dto.MeResponse{User: dto.UserFrom(user)})
}

// Logout implementa POST /users/logout. Idempotente.
func (u *Users) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if err := apperrors.ReadJSON(r, &req); err != nil {
		apperrors.Write(r.Context(), w, apperrors.ErrBadJSON.WithCause(err))
		return
	}

	if appErr := u.sessions.Logout(r.Context(), req.SessionID); appErr != nil {
		apperrors.Write(r.Context(), w, appErr)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}
