// Package pg implementa core.Repository sobre PostgreSQL vía pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thedevkitchen/apigateway/internal/store/core"
)

type Adapter struct {
	pool *pgxpool.Pool
}

var _ core.Repository = (*Adapter)(nil)

type Options struct {
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// New abre el pool contra dsn y hace un ping inicial para fallar temprano.
func New(ctx context.Context, dsn string, opts Options) (*Adapter, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = opts.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Adapter{pool: pool}, nil
}

// ---- Aplicaciones ----

func (a *Adapter) CreateApplication(ctx context.Context, app *core.Application) error {
	const q = `
		INSERT INTO oauth_applications (id, name, client_id, secret_hash, active, allowed_scope, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, now())
		RETURNING id, created_at`
	err := a.pool.QueryRow(ctx, q, app.Name, app.ClientID, app.SecretHash, app.Active, app.AllowedScope).
		Scan(&app.ID, &app.CreatedAt)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func (a *Adapter) GetApplicationByClientID(ctx context.Context, clientID string) (*core.Application, error) {
	const q = `
		SELECT id, name, client_id, secret_hash, active, allowed_scope, created_at
		FROM oauth_applications WHERE client_id = $1`
	return scanApplication(a.pool.QueryRow(ctx, q, clientID))
}

func (a *Adapter) GetApplicationByID(ctx context.Context, id string) (*core.Application, error) {
	const q = `
		SELECT id, name, client_id, secret_hash, active, allowed_scope, created_at
		FROM oauth_applications WHERE id = $1`
	return scanApplication(a.pool.QueryRow(ctx, q, id))
}

func (a *Adapter) UpdateApplicationSecret(ctx context.Context, appID, secretHash string) error {
	tag, err := a.pool.Exec(ctx,
		`UPDATE oauth_applications SET secret_hash = $2 WHERE id = $1`, appID, secretHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanApplication(row pgx.Row) (*core.Application, error) {
	var app core.Application
	err := row.Scan(&app.ID, &app.Name, &app.ClientID, &app.SecretHash,
		&app.Active, &app.AllowedScope, &app.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ---- Tokens de aplicación ----

func (a *Adapter) CreateAppToken(ctx context.Context, tok *core.AppToken) error {
	const q = `
		INSERT INTO oauth_tokens
			(id, app_id, access_token, access_jti, refresh_token, expires_at, revoked, created_at, last_used_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, false, now(), now())
		RETURNING id, created_at, last_used_at`
	return a.pool.QueryRow(ctx, q, tok.AppID, tok.AccessToken, tok.AccessJTI,
		tok.RefreshToken, tok.ExpiresAt).
		Scan(&tok.ID, &tok.CreatedAt, &tok.LastUsedAt)
}

func (a *Adapter) GetAppTokenByAccess(ctx context.Context, accessToken string) (*core.AppToken, error) {
	return a.getToken(ctx, "access_token", accessToken)
}

func (a *Adapter) GetAppTokenByRefresh(ctx context.Context, refreshToken string) (*core.AppToken, error) {
	return a.getToken(ctx, "refresh_token", refreshToken)
}

func (a *Adapter) getToken(ctx context.Context, col, val string) (*core.AppToken, error) {
	q := fmt.Sprintf(`
		SELECT id, app_id, access_token, access_jti, refresh_token, expires_at, revoked, created_at, last_used_at
		FROM oauth_tokens WHERE %s = $1`, col)
	var t core.AppToken
	err := a.pool.QueryRow(ctx, q, val).Scan(&t.ID, &t.AppID, &t.AccessToken,
		&t.AccessJTI, &t.RefreshToken, &t.ExpiresAt, &t.Revoked, &t.CreatedAt, &t.LastUsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (a *Adapter) UpdateAppTokenAccess(ctx context.Context, tokenID, accessToken, accessJTI string, expiresAt time.Time) error {
	tag, err := a.pool.Exec(ctx, `
		UPDATE oauth_tokens
		SET access_token = $2, access_jti = $3, expires_at = $4, last_used_at = now()
		WHERE id = $1`, tokenID, accessToken, accessJTI, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (a *Adapter) TouchAppToken(ctx context.Context, tokenID string, at time.Time) error {
	_, err := a.pool.Exec(ctx,
		`UPDATE oauth_tokens SET last_used_at = $2 WHERE id = $1`, tokenID, at)
	return err
}

func (a *Adapter) RevokeAppToken(ctx context.Context, tokenID string) error {
	tag, err := a.pool.Exec(ctx,
		`UPDATE oauth_tokens SET revoked = true WHERE id = $1`, tokenID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (a *Adapter) RevokeTokensForApplication(ctx context.Context, appID string) (int, error) {
	tag, err := a.pool.Exec(ctx,
		`UPDATE oauth_tokens SET revoked = true WHERE app_id = $1 AND NOT revoked`, appID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ---- Usuarios ----

func (a *Adapter) CreateUser(ctx context.Context, u *core.User) error {
	const q = `
		INSERT INTO users (id, name, email, password_hash, active)
		VALUES (gen_random_uuid(), $1, lower($2), $3, $4)
		RETURNING id`
	err := a.pool.QueryRow(ctx, q, u.Name, u.Email, u.PasswordHash, u.Active).Scan(&u.ID)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	const q = `
		SELECT id, name, email, password_hash, active
		FROM users WHERE email = lower($1)`
	return scanUser(a.pool.QueryRow(ctx, q, email))
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	const q = `
		SELECT id, name, email, password_hash, active
		FROM users WHERE id = $1`
	return scanUser(a.pool.QueryRow(ctx, q, id))
}

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---- Sesiones ----

// RotateSession desactiva las sesiones activas del usuario y crea la nueva
// dentro de una transacción, con lock de fila para que dos logins
// concurrentes del mismo usuario terminen con una sola sesión activa.
func (a *Adapter) RotateSession(ctx context.Context, sess *core.APISession) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		SELECT id FROM api_sessions
		WHERE user_id = $1 AND active FOR UPDATE`, sess.UserID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE api_sessions SET active = false, logout_at = now()
		WHERE user_id = $1 AND active`, sess.UserID); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO api_sessions (id, user_id, token, active, created_at, last_activity)
		VALUES ($1, $2, $3, true, now(), now())
		RETURNING created_at, last_activity`,
		sess.ID, sess.UserID, sess.Token).
		Scan(&sess.CreatedAt, &sess.LastActivity); err != nil {
		return err
	}
	sess.Active = true
	return tx.Commit(ctx)
}

func (a *Adapter) GetSession(ctx context.Context, sessionID string) (*core.APISession, error) {
	const q = `
		SELECT id, user_id, token, active, created_at, last_activity, logout_at
		FROM api_sessions WHERE id = $1`
	var s core.APISession
	err := a.pool.QueryRow(ctx, q, sessionID).
		Scan(&s.ID, &s.UserID, &s.Token, &s.Active, &s.CreatedAt, &s.LastActivity, &s.LogoutAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *Adapter) DeactivateSession(ctx context.Context, sessionID string) error {
	tag, err := a.pool.Exec(ctx,
		`UPDATE api_sessions SET active = false, logout_at = now() WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (a *Adapter) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := a.pool.Exec(ctx,
		`UPDATE api_sessions SET last_activity = $2 WHERE id = $1`, sessionID, at)
	return err
}

func (a *Adapter) DeactivateStaleSessions(ctx context.Context, before time.Time) (int, error) {
	tag, err := a.pool.Exec(ctx,
		`UPDATE api_sessions SET active = false, logout_at = now() WHERE active AND last_activity < $1`, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ---- Auditoría ----

func (a *Adapter) CreateAuditEvent(ctx context.Context, ev *core.AuditEvent) error {
	const q = `
		INSERT INTO audit_events (id, kind, user_id, client_id, session_id, ip, detail, at)
		VALUES (gen_random_uuid(), $1, nullif($2,''), nullif($3,''), nullif($4,''), nullif($5,''), $6, now())
		RETURNING id, at`
	return a.pool.QueryRow(ctx, q, ev.Kind, ev.UserID, ev.ClientID, ev.SessionID, ev.IP, ev.Detail).
		Scan(&ev.ID, &ev.At)
}

func (a *Adapter) Ping(ctx context.Context) error { return a.pool.Ping(ctx) }

func (a *Adapter) Close() { a.pool.Close() }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
