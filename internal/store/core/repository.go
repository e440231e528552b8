package core

import (
	"context"
	"time"
)

// Repository es el contrato de persistencia del gateway. Toda operación
// recibe context: los adapters respetan cancelación y deadline.
type Repository interface {
	// ---- Aplicaciones OAuth2 ----

	CreateApplication(ctx context.Context, app *Application) error
	GetApplicationByClientID(ctx context.Context, clientID string) (*Application, error)
	GetApplicationByID(ctx context.Context, id string) (*Application, error)
	// UpdateApplicationSecret pisa el hash del secret (rotación por CLI).
	UpdateApplicationSecret(ctx context.Context, appID, secretHash string) error

	// ---- Tokens de aplicación ----

	CreateAppToken(ctx context.Context, tok *AppToken) error
	GetAppTokenByAccess(ctx context.Context, accessToken string) (*AppToken, error)
	GetAppTokenByRefresh(ctx context.Context, refreshToken string) (*AppToken, error)
	// UpdateAppTokenAccess reemplaza access token, jti y expiración en un
	// refresh. El refresh_token no cambia.
	UpdateAppTokenAccess(ctx context.Context, tokenID, accessToken, accessJTI string, expiresAt time.Time) error
	TouchAppToken(ctx context.Context, tokenID string, at time.Time) error
	RevokeAppToken(ctx context.Context, tokenID string) error
	// RevokeTokensForApplication revoca todo lo vivo de una app (rotación de
	// secret). Devuelve cuántos tokens revocó.
	RevokeTokensForApplication(ctx context.Context, appID string) (int, error)

	// ---- Usuarios ----

	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	// ---- Sesiones ----

	// RotateSession desactiva todas las sesiones activas del usuario y crea
	// la nueva en una sola transacción: nunca quedan dos activas.
	RotateSession(ctx context.Context, sess *APISession) error
	GetSession(ctx context.Context, sessionID string) (*APISession, error)
	DeactivateSession(ctx context.Context, sessionID string) error
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
	// DeactivateStaleSessions desactiva sesiones sin actividad desde before.
	// Devuelve cuántas tocó.
	DeactivateStaleSessions(ctx context.Context, before time.Time) (int, error)

	// ---- Auditoría ----

	CreateAuditEvent(ctx context.Context, ev *AuditEvent) error

	// Ping verifica que el backend responda (readiness).
	Ping(ctx context.Context) error

	Close()
}
