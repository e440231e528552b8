// Package oauth implementa el grant client_credentials: emisión, refresh y
// revocación de tokens de aplicación.
package oauth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/thedevkitchen/apigateway/internal/audit"
	apperrors "github.com/thedevkitchen/apigateway/internal/http/errors"
	"github.com/thedevkitchen/apigateway/internal/jwt"
	"github.com/thedevkitchen/apigateway/internal/metrics"
	"github.com/thedevkitchen/apigateway/internal/observability/logger"
	"github.com/thedevkitchen/apigateway/internal/security/password"
	tokens "github.com/thedevkitchen/apigateway/internal/security/token"
	"github.com/thedevkitchen/apigateway/internal/store/core"
)

const refreshTokenBytes = 32

// TokenPair es la respuesta de issue/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

type Grant struct {
	repo  core.Repository
	codec *jwt.Codec
	audit *audit.Recorder
}

func NewGrant(repo core.Repository, codec *jwt.Codec, rec *audit.Recorder) *Grant {
	return &Grant{repo: repo, codec: codec, audit: rec}
}

// Issue valida las credenciales de la aplicación y emite un par nuevo.
// Cliente desconocido, inactivo o secret incorrecto responden exactamente
// igual (invalid_client) para no permitir enumeración.
func (g *Grant) Issue(ctx context.Context, grantType, clientID, clientSecret string) (*TokenPair, *apperrors.AppError) {
	if grantType != "client_credentials" {
		return nil, apperrors.ErrUnsupportedGrantType.WithDetail("grant_type=%q", grantType)
	}
	if clientID == "" || clientSecret == "" {
		return nil, apperrors.ErrInvalidRequest.WithDetail("missing client_id or client_secret")
	}

	app, err := g.repo.GetApplicationByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, apperrors.ErrInvalidClient.WithDetail("unknown client_id %s", clientID)
		}
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	if !app.Active {
		return nil, apperrors.ErrInvalidClient.WithDetail("application %s inactive", clientID)
	}
	if !password.Verify(clientSecret, app.SecretHash) {
		return nil, apperrors.ErrInvalidClient.WithDetail("secret mismatch for %s", clientID)
	}

	access, jti, expiresAt, err := g.codec.SignAccessToken(app.ClientID)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	refresh, err := tokens.GenerateOpaqueToken(refreshTokenBytes)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}

	tok := &core.AppToken{
		AppID:        app.ID,
		AccessToken:  access,
		AccessJTI:    jti,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}
	if err := g.repo.CreateAppToken(ctx, tok); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}

	g.audit.Record(ctx, core.AuditEvent{
		Kind: audit.EventTokenIssued, ClientID: app.ClientID, Detail: "client_credentials",
	})
	metrics.TokensIssued.WithLabelValues("client_credentials").Inc()
	logger.From(ctx).Info("access token issued",
		logger.ClientID(app.ClientID), zap.Time("expires_at", expiresAt))

	return &TokenPair{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int64(g.codec.AccessTTL().Seconds()),
		RefreshToken: refresh,
	}, nil
}

// Refresh emite un access token nuevo contra un refresh token vigente.
// El refresh_token devuelto es el mismo: este grant no rota refresh tokens.
// clientID y clientSecret son opcionales, pero si vienen tienen que
// corresponder a la aplicación dueña del refresh token.
func (g *Grant) Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*TokenPair, *apperrors.AppError) {
	if refreshToken == "" {
		return nil, apperrors.ErrInvalidRequest.WithDetail("missing refresh_token")
	}

	tok, err := g.repo.GetAppTokenByRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, apperrors.ErrInvalidGrant.WithDetail("unknown refresh token")
		}
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	if tok.Revoked {
		return nil, apperrors.ErrInvalidGrant.WithDetail("refresh token revoked")
	}

	app, err := g.repo.GetApplicationByID(ctx, tok.AppID)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	if !app.Active {
		return nil, apperrors.ErrInvalidClient.WithDetail("application %s inactive", app.ClientID)
	}
	if clientID != "" || clientSecret != "" {
		if clientID != app.ClientID {
			return nil, apperrors.ErrInvalidClient.WithDetail(
				"refresh client_id %s does not own the token", clientID)
		}
		if !password.Verify(clientSecret, app.SecretHash) {
			return nil, apperrors.ErrInvalidClient.WithDetail("secret mismatch on refresh for %s", clientID)
		}
	}

	access, jti, expiresAt, err := g.codec.SignAccessToken(app.ClientID)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	if err := g.repo.UpdateAppTokenAccess(ctx, tok.ID, access, jti, expiresAt); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}

	metrics.TokensIssued.WithLabelValues("refresh").Inc()
	logger.From(ctx).Info("access token refreshed", logger.ClientID(app.ClientID))

	return &TokenPair{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int64(g.codec.AccessTTL().Seconds()),
		RefreshToken: tok.RefreshToken,
	}, nil
}

// Revoke marca el token como revocado. Siempre responde éxito, exista o no:
// la revocación nunca filtra existencia (RFC 7009). Solo la falta total de
// token es un error del request.
func (g *Grant) Revoke(ctx context.Context, token string) *apperrors.AppError {
	if token == "" {
		return apperrors.ErrInvalidRequest.WithDetail("missing token")
	}

	tok, err := g.repo.GetAppTokenByAccess(ctx, token)
	if errors.Is(err, core.ErrNotFound) {
		tok, err = g.repo.GetAppTokenByRefresh(ctx, token)
	}
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil // desconocido: éxito silencioso
		}
		return apperrors.ErrInternal.WithCause(err)
	}
	if tok.Revoked {
		return nil
	}

	if err := g.repo.RevokeAppToken(ctx, tok.ID); err != nil {
		return apperrors.ErrInternal.WithCause(err)
	}
	g.audit.Record(ctx, core.AuditEvent{Kind: audit.EventTokenRevoked, Detail: "explicit revoke"})
	metrics.TokensRevoked.Inc()
	logger.From(ctx).Info("token revoked", zap.String("token_id", tok.ID))
	return nil
}

// RevokeAllForApplication revoca todos los tokens vivos de una aplicación.
// Lo usa la rotación de secret por CLI.
func (g *Grant) RevokeAllForApplication(ctx context.Context, appID string) (int, error) {
	n, err := g.repo.RevokeTokensForApplication(ctx, appID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		g.audit.Record(ctx, core.AuditEvent{Kind: audit.EventTokenRevoked, Detail: "secret rotation"})
	}
	return n, nil
}
