// Package memory implementa core.Repository sobre mapas en memoria.
// Sirve para desarrollo local y para los tests de integración HTTP;
// no persiste nada entre reinicios.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thedevkitchen/apigateway/internal/store/core"
)

type Store struct {
	mu sync.RWMutex

	apps     map[string]*core.Application // por ID
	tokens   map[string]*core.AppToken    // por ID
	users    map[string]*core.User        // por ID
	sessions map[string]*core.APISession  // por ID
	audit    []*core.AuditEvent
}

var _ core.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		apps:     map[string]*core.Application{},
		tokens:   map[string]*core.AppToken{},
		users:    map[string]*core.User{},
		sessions: map[string]*core.APISession{},
	}
}

// ---- Aplicaciones ----

func (s *Store) CreateApplication(_ context.Context, app *core.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.ClientID == app.ClientID {
			return core.ErrConflict
		}
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *Store) GetApplicationByClientID(_ context.Context, clientID string) (*core.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.apps {
		if a.ClientID == clientID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) GetApplicationByID(_ context.Context, id string) (*core.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) UpdateApplicationSecret(_ context.Context, appID, secretHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[appID]
	if !ok {
		return core.ErrNotFound
	}
	a.SecretHash = secretHash
	return nil
}

// ---- Tokens de aplicación ----

func (s *Store) CreateAppToken(_ context.Context, tok *core.AppToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.ID == "" {
		tok.ID = uuid.NewString()
	}
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}
	cp := *tok
	s.tokens[tok.ID] = &cp
	return nil
}

func (s *Store) GetAppTokenByAccess(_ context.Context, accessToken string) (*core.AppToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.AccessToken == accessToken {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) GetAppTokenByRefresh(_ context.Context, refreshToken string) (*core.AppToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.RefreshToken == refreshToken {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) UpdateAppTokenAccess(_ context.Context, tokenID, accessToken, accessJTI string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID]
	if !ok {
		return core.ErrNotFound
	}
	t.AccessToken = accessToken
	t.AccessJTI = accessJTI
	t.ExpiresAt = expiresAt
	return nil
}

func (s *Store) TouchAppToken(_ context.Context, tokenID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID]
	if !ok {
		return core.ErrNotFound
	}
	t.LastUsedAt = at
	return nil
}

func (s *Store) RevokeAppToken(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID]
	if !ok {
		return core.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (s *Store) RevokeTokensForApplication(_ context.Context, appID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.AppID == appID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

// ---- Usuarios ----

func (s *Store) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.users {
		if strings.EqualFold(x.Email, u.Email) {
			return core.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ---- Sesiones ----

func (s *Store) RotateSession(_ context.Context, sess *core.APISession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, x := range s.sessions {
		if x.UserID == sess.UserID && x.Active {
			x.Active = false
			t := now
			x.LogoutAt = &t
		}
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.LastActivity.IsZero() {
		sess.LastActivity = now
	}
	sess.Active = true
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID string) (*core.APISession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	x, ok := s.sessions[sessionID]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (s *Store) DeactivateSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.sessions[sessionID]
	if !ok {
		return core.ErrNotFound
	}
	x.Active = false
	now := time.Now().UTC()
	x.LogoutAt = &now
	return nil
}

func (s *Store) TouchSession(_ context.Context, sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.sessions[sessionID]
	if !ok {
		return core.ErrNotFound
	}
	x.LastActivity = at
	return nil
}

func (s *Store) DeactivateStaleSessions(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := time.Now().UTC()
	for _, x := range s.sessions {
		if x.Active && x.LastActivity.Before(before) {
			x.Active = false
			t := now
			x.LogoutAt = &t
			n++
		}
	}
	return n, nil
}

// ---- Auditoría ----

func (s *Store) CreateAuditEvent(_ context.Context, ev *core.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	cp := *ev
	s.audit = append(s.audit, &cp)
	return nil
}

// AuditEvents devuelve una copia del trail; solo lo usan los tests.
func (s *Store) AuditEvents() []core.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.AuditEvent, 0, len(s.audit))
	for _, ev := range s.audit {
		out = append(out, *ev)
	}
	return out
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}
