// Package session implementa el ciclo de vida de sesiones de usuario:
// login con rotación (una sola sesión activa por usuario), validación con
// huella de dispositivo y logout idempotente.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thedevkitchen/apigateway/internal/audit"
	"github.com/thedevkitchen/apigateway/internal/fingerprint"
	apperrors "github.com/thedevkitchen/apigateway/internal/http/errors"
	"github.com/thedevkitchen/apigateway/internal/jwt"
	"github.com/thedevkitchen/apigateway/internal/metrics"
	"github.com/thedevkitchen/apigateway/internal/observability/logger"
	"github.com/thedevkitchen/apigateway/internal/security/password"
	tokens "github.com/thedevkitchen/apigateway/internal/security/token"
	"github.com/thedevkitchen/apigateway/internal/store/core"
)

const sessionIDBytes = 32

type Manager struct {
	repo     core.Repository
	codec    *jwt.Codec
	settings fingerprint.Settings
	audit    *audit.Recorder
}

func NewManager(repo core.Repository, codec *jwt.Codec, settings fingerprint.Settings, rec *audit.Recorder) *Manager {
	return &Manager{repo: repo, codec: codec, settings: settings, audit: rec}
}

// LoginResult es lo único que vuelve al cliente tras un login. El security
// token queda en la fila de sesión y nunca sale del servidor.
type LoginResult struct {
	SessionID string
	User      *core.User
}

// Login autentica las credenciales, desactiva cualquier sesión previa del
// usuario y crea la nueva con la huella del dispositivo embebida en el
// security token. Credencial mala y usuario inexistente responden igual.
func (m *Manager) Login(ctx context.Context, email, pass string, meta fingerprint.RequestMeta) (*LoginResult, *apperrors.AppError) {
	if email == "" || pass == "" {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, apperrors.ErrInvalidCredentials.WithDetail("missing email or password")
	}

	user, err := m.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			m.recordLoginFailure(ctx, "", meta, "unknown email")
			return nil, apperrors.ErrInvalidCredentials.WithDetail("unknown email %s", email)
		}
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	if !password.Verify(pass, user.PasswordHash) {
		m.recordLoginFailure(ctx, user.ID, meta, "bad password")
		return nil, apperrors.ErrInvalidCredentials.WithDetail("password mismatch for %s", email)
	}
	if !user.Active {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		return nil, apperrors.ErrUserInactive.WithDetail("user %s inactive", user.ID)
	}

	sid, err := tokens.GenerateOpaqueToken(sessionIDBytes)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	fp := fingerprint.Extract(meta, m.settings)
	secTok, err := m.codec.SignSessionToken(user.ID, fp)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}

	sess := &core.APISession{ID: sid, UserID: user.ID, Token: secTok}
	if err := m.repo.RotateSession(ctx, sess); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}

	m.audit.Record(ctx, core.AuditEvent{
		Kind: audit.EventLoginSuccess, UserID: user.ID, SessionID: sid, IP: meta.IP,
	})
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	logger.From(ctx).Info("user logged in",
		logger.UserID(user.ID), logger.SessionID(sid), zap.String("ip", meta.IP))

	return &LoginResult{SessionID: sid, User: user}, nil
}

// Validate corre la escalera de chequeos de una sesión, en orden estricto;
// gana el primer fallo. Devuelve el usuario dueño de la fila: un session_id
// robado presentado desde una huella idéntica resuelve al dueño real.
func (m *Manager) Validate(ctx context.Context, sessionID string, meta fingerprint.RequestMeta) (*core.User, *apperrors.AppError) {
	if sessionID == "" {
		metrics.SessionRejections.WithLabelValues("not_found").Inc()
		return nil, apperrors.ErrTokenRequired.WithDetail("empty session_id")
	}

	sess, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			metrics.SessionRejections.WithLabelValues("not_found").Inc()
			return nil, apperrors.ErrSessionNotFound.WithDetail("session %s not found", sessionID)
		}
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	if !sess.Active {
		metrics.SessionRejections.WithLabelValues("inactive").Inc()
		return nil, apperrors.ErrSessionRevoked.WithDetail("session %s inactive", sessionID)
	}
	if sess.Token == "" {
		metrics.SessionRejections.WithLabelValues("token_invalid").Inc()
		return nil, apperrors.ErrTokenRequired.WithDetail("session %s has no token", sessionID)
	}

	claims, err := m.codec.Verify(sess.Token)
	if err != nil {
		metrics.SessionRejections.WithLabelValues("token_invalid").Inc()
		return nil, apperrors.ErrTokenInvalid.WithCause(err).WithDetail("session %s", sessionID)
	}
	sc, err := jwt.ParseSessionClaims(claims)
	if err != nil {
		metrics.SessionRejections.WithLabelValues("token_invalid").Inc()
		return nil, apperrors.ErrTokenInvalid.WithCause(err).WithDetail("session %s", sessionID)
	}
	if sc.UID != sess.UserID {
		metrics.SessionRejections.WithLabelValues("uid_mismatch").Inc()
		return nil, apperrors.ErrUIDMismatch.WithDetail(
			"token uid %s != session owner %s", sc.UID, sess.UserID)
	}

	current := fingerprint.Extract(meta, m.settings)
	embedded := fingerprint.Fingerprint(sc.Fingerprint)
	if !current.Equal(embedded) {
		m.audit.Record(ctx, core.AuditEvent{
			Kind: audit.EventHijackDetected, UserID: sess.UserID,
			SessionID: sessionID, IP: meta.IP,
			Detail: "fingerprint mismatch: " + strings.Join(current.Diff(embedded), ","),
		})
		metrics.SessionRejections.WithLabelValues("fingerprint_mismatch").Inc()
		logger.From(ctx).Warn("possible session hijack",
			logger.SessionID(sessionID), logger.UserID(sess.UserID),
			zap.Strings("mismatched", current.Diff(embedded)))
		return nil, apperrors.ErrFingerprintMismatch.WithDetail(
			"fingerprint mismatch on %s", strings.Join(current.Diff(embedded), ","))
	}

	user, err := m.repo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}

	// best-effort: la actividad alimenta al janitor, no a la validación
	if err := m.repo.TouchSession(ctx, sessionID, time.Now().UTC()); err != nil {
		logger.From(ctx).Warn("touch session", logger.SessionID(sessionID), zap.Error(err))
	}
	return user, nil
}

// Logout desactiva la sesión. Idempotente: sesión desconocida o ya
// desactivada también es éxito, nunca se filtra existencia.
func (m *Manager) Logout(ctx context.Context, sessionID string) *apperrors.AppError {
	if sessionID == "" {
		return apperrors.ErrSessionIDRequired
	}
	err := m.repo.DeactivateSession(ctx, sessionID)
	switch {
	case err == nil:
		m.audit.Record(ctx, core.AuditEvent{Kind: audit.EventLogout, SessionID: sessionID})
		logger.From(ctx).Info("session closed", logger.SessionID(sessionID))
	case errors.Is(err, core.ErrNotFound):
		// nada que hacer
	default:
		return apperrors.ErrInternal.WithCause(err)
	}
	return nil
}

// CloseStale desactiva las sesiones sin actividad desde hace staleAfter.
func (m *Manager) CloseStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	return m.repo.DeactivateStaleSessions(ctx, time.Now().UTC().Add(-staleAfter))
}

// RunJanitor cierra sesiones viejas cada interval hasta que ctx se cancele.
func (m *Manager) RunJanitor(ctx context.Context, interval, staleAfter time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := m.CloseStale(ctx, staleAfter)
			if err != nil {
				logger.From(ctx).Warn("session janitor", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.From(ctx).Info("stale sessions closed", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) recordLoginFailure(ctx context.Context, userID string, meta fingerprint.RequestMeta, detail string) {
	m.audit.Record(ctx, core.AuditEvent{
		Kind: audit.EventLoginFailed, UserID: userID, IP: meta.IP, Detail: detail,
	})
	metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
}
