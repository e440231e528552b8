package core

import (
	"context"
	"time"
)

// WithTimeout decora un Repository imponiendo un deadline por operación.
// Un backend colgado corta con context.DeadlineExceeded y el caller rechaza
// el request: nunca se falla abierto. Con d <= 0 devuelve el repo sin tocar.
func WithTimeout(inner Repository, d time.Duration) Repository {
	if d <= 0 {
		return inner
	}
	return &timeoutRepo{inner: inner, d: d}
}

type timeoutRepo struct {
	inner Repository
	d     time.Duration
}

func (t *timeoutRepo) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.d)
}

func (t *timeoutRepo) CreateApplication(ctx context.Context, app *Application) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.CreateApplication(ctx, app)
}

func (t *timeoutRepo) GetApplicationByClientID(ctx context.Context, clientID string) (*Application, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.GetApplicationByClientID(ctx, clientID)
}

func (t *timeoutRepo) GetApplicationByID(ctx context.Context, id string) (*Application, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.GetApplicationByID(ctx, id)
}

func (t *timeoutRepo) UpdateApplicationSecret(ctx context.Context, appID, secretHash string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.UpdateApplicationSecret(ctx, appID, secretHash)
}

func (t *timeoutRepo) CreateAppToken(ctx context.Context, tok *AppToken) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.CreateAppToken(ctx, tok)
}

func (t *timeoutRepo) GetAppTokenByAccess(ctx context.Context, accessToken string) (*AppToken, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.GetAppTokenByAccess(ctx, accessToken)
}

func (t *timeoutRepo) GetAppTokenByRefresh(ctx context.Context, refreshToken string) (*AppToken, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.GetAppTokenByRefresh(ctx, refreshToken)
}

func (t *timeoutRepo) UpdateAppTokenAccess(ctx context.Context, tokenID, accessToken, accessJTI string, expiresAt time.Time) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.UpdateAppTokenAccess(ctx, tokenID, accessToken, accessJTI, expiresAt)
}

func (t *timeoutRepo) TouchAppToken(ctx context.Context, tokenID string, at time.Time) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.TouchAppToken(ctx, tokenID, at)
}

func (t *timeoutRepo) RevokeAppToken(ctx context.Context, tokenID string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.RevokeAppToken(ctx, tokenID)
}

func (t *timeoutRepo) RevokeTokensForApplication(ctx context.Context, appID string) (int, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.RevokeTokensForApplication(ctx, appID)
}

func (t *timeoutRepo) CreateUser(ctx context.Context, u *User) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.CreateUser(ctx, u)
}

func (t *timeoutRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.GetUserByEmail(ctx, email)
}

func (t *timeoutRepo) GetUserByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.GetUserByID(ctx, id)
}

func (t *timeoutRepo) RotateSession(ctx context.Context, sess *APISession) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.RotateSession(ctx, sess)
}

func (t *timeoutRepo) GetSession(ctx context.Context, sessionID string) (*APISession, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.GetSession(ctx, sessionID)
}

func (t *timeoutRepo) DeactivateSession(ctx context.Context, sessionID string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.DeactivateSession(ctx, sessionID)
}

func (t *timeoutRepo) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.TouchSession(ctx, sessionID, at)
}

func (t *timeoutRepo) DeactivateStaleSessions(ctx context.Context, before time.Time) (int, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.DeactivateStaleSessions(ctx, before)
}

func (t *timeoutRepo) CreateAuditEvent(ctx context.Context, ev *AuditEvent) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.CreateAuditEvent(ctx, ev)
}

func (t *timeoutRepo) Ping(ctx context.Context) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.inner.Ping(ctx)
}

func (t *timeoutRepo) Close() { t.inner.Close() }
