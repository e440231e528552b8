package controllers

import (
	"net/http"

	apperrors "github.com/thedevkitchen/apigateway/internal/http/errors"
	"github.com/thedevkitchen/apigateway/internal/http/dto"
	"github.com/thedevkitchen/apigateway/internal/http/middlewares"
	"github.com/thedevkitchen/apigateway/internal/oauth"
)

// Auth maneja los endpoints OAuth (/auth/*). Sus errores se serializan en
// el formato plano {"error": code}.
type Auth struct {
	grant *oauth.Grant
}

// Token implementa POST /auth/token. Acepta body JSON o form-encoded, como
// piden los clientes OAuth clásicos.
func (a *Auth) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := apperrors.ReadJSON(r, &req); err != nil {
		// puede ser un form OAuth tradicional
		if err := r.ParseForm(); err == nil {
			req.GrantType = r.PostFormValue("grant_type")
			req.ClientID = r.PostFormValue("client_id")
			req.ClientSecret = r.PostFormValue("client_secret")
		}
	}

	pair, appErr := a.grant.Issue(r.Context(), req.GrantType, req.ClientID, req.ClientSecret)
	if appErr != nil {
		apperrors.WriteOAuth(r.Context(), w, appErr)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, pair)
}

// Refresh implementa POST /auth/refresh.
func (a *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := apperrors.ReadJSON(r, &req); err != nil {
		apperrors.WriteOAuth(r.Context(), w, apperrors.ErrInvalidRequest.WithCause(err))
		return
	}

	pair, appErr := a.grant.Refresh(r.Context(), req.RefreshToken, req.ClientID, req.ClientSecret)
	if appErr != nil {
		apperrors.WriteOAuth(r.Context(), w, appErr)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, pair)
}

// Revoke implementa POST /auth/revoke. El token puede venir en el body o en
// el header Authorization; siempre responde 200 salvo request sin token.
func (a *Auth) Revoke(w http.ResponseWriter, r *http.Request) {
	var req dto.RevokeRequest
	if err := apperrors.ReadJSON(r, &req); err != nil {
		apperrors.WriteOAuth(r.Context(), w, apperrors.ErrInvalidRequest.WithCause(err))
		return
	}
	token := req.Token
	if token == "" {
		token = middlewares.BearerToken(r)
	}

	if appErr := a.grant.Revoke(r.Context(), token); appErr != nil {
		apperrors.WriteOAuth(r.Context(), w, appErr)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
