package session

import (
	"context"
	"testing"
	"time"

	"github.com/thedevkitchen/apigateway/internal/audit"
	"github.com/thedevkitchen/apigateway/internal/fingerprint"
	"github.com/thedevkitchen/apigateway/internal/jwt"
	"github.com/thedevkitchen/apigateway/internal/security/password"
	"github.com/thedevkitchen/apigateway/internal/store/core"
	"github.com/thedevkitchen/apigateway/internal/store/memory"
)

var (
	metaA = fingerprint.RequestMeta{IP: "10.0.0.1", UserAgent: "curl/8.0", AcceptLanguage: "es-AR"}
	metaB = fingerprint.RequestMeta{IP: "10.0.0.1", UserAgent: "Mozilla/5.0", AcceptLanguage: "es-AR"}
)

func newTestManager(t *testing.T, sessionTTL time.Duration) (*Manager, *memory.Store) {
	t.Helper()
	repo := memory.New()
	codec := jwt.NewCodec("test-secret", "thedevkitchen-api-gateway", "session-security", time.Hour, sessionTTL)
	return NewManager(repo, codec, fingerprint.DefaultSettings, audit.NewRecorder(repo)), repo
}

func seedUser(t *testing.T, repo *memory.Store, email, pass string, active bool) *core.User {
	t.Helper()
	hash, err := password.Hash(pass)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &core.User{Name: "Joao", Email: email, PasswordHash: hash, Active: active}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestLoginAndValidate(t *testing.T) {
	m, repo := newTestManager(t, 24*time.Hour)
	u := seedUser(t, repo, "joao@x.com", "p", true)

	res, appErr := m.Login(context.Background(), "joao@x.com", "p", metaA)
	if appErr != nil {
		t.Fatalf("Login: %v", appErr)
	}
	if res.SessionID == "" {
		t.Fatal("expected session_id")
	}
	if res.User.ID != u.ID {
		t.Fatalf("user = %s, want %s", res.User.ID, u.ID)
	}

	got, appErr := m.Validate(context.Background(), res.SessionID, metaA)
	if appErr != nil {
		t.Fatalf("Validate: %v", appErr)
	}
	if got.Email != "joao@x.com" {
		t.Fatalf("email = %q", got.Email)
	}
}

func TestLoginRejections(t *testing.T) {
	m, repo := newTestManager(t, 24*time.Hour)
	seedUser(t, repo, "joao@x.com", "p", true)
	seedUser(t, repo, "off@x.com", "p", false)

	if _, appErr := m.Login(context.Background(), "nobody@x.com", "p", metaA); appErr == nil || appErr.Message != "Invalid credentials" {
		t.Fatalf("unknown email: %v", appErr)
	}
	if _, appErr := m.Login(context.Background(), "joao@x.com", "wrong", metaA); appErr == nil || appErr.Message != "Invalid credentials" {
		t.Fatalf("bad password: %v", appErr)
	}
	if _, appErr := m.Login(context.Background(), "off@x.com", "p", metaA); appErr == nil || appErr.HTTPStatus != 403 {
		t.Fatalf("inactive user: %v", appErr)
	}
}

func TestReLoginInvalidatesPreviousSession(t *testing.T) {
	m, repo := newTestManager(t, 24*time.Hour)
	seedUser(t, repo, "joao@x.com", "p", true)
	ctx := context.Background()

	first, _ := m.Login(ctx, "joao@x.com", "p", metaA)
	second, appErr := m.Login(ctx, "joao@x.com", "p", metaA)
	if appErr != nil {
		t.Fatalf("second login: %v", appErr)
	}

	if _, appErr := m.Validate(ctx, first.SessionID, metaA); appErr == nil {
		t.Fatal("old session must be invalid after re-login")
	} else if appErr.Code != "session_revoked" {
		t.Fatalf("old session code = %s, want session_revoked", appErr.Code)
	}
	if _, appErr := m.Validate(ctx, second.SessionID, metaA); appErr != nil {
		t.Fatalf("new session must validate: %v", appErr)
	}

	// la fila vieja sigue existiendo, desactivada y con logout_at
	row, err := repo.GetSession(ctx, first.SessionID)
	if err != nil {
		t.Fatalf("old row gone: %v", err)
	}
	if row.Active || row.LogoutAt == nil {
		t.Fatalf("old row: active=%v logout_at=%v", row.Active, row.LogoutAt)
	}
}

func TestValidateLadder(t *testing.T) {
	m, repo := newTestManager(t, 24*time.Hour)
	seedUser(t, repo, "joao@x.com", "p", true)
	ctx := context.Background()

	res, _ := m.Login(ctx, "joao@x.com", "p", metaA)

	t.Run("unknown session", func(t *testing.T) {
		_, appErr := m.Validate(ctx, "nope", metaA)
		if appErr == nil || appErr.Code != "session_not_found" {
			t.Fatalf("got %v", appErr)
		}
	})

	t.Run("fingerprint mismatch", func(t *testing.T) {
		_, appErr := m.Validate(ctx, res.SessionID, metaB)
		if appErr == nil || appErr.Code != "fingerprint_mismatch" {
			t.Fatalf("got %v", appErr)
		}
		if appErr.Message != "Session validation failed" {
			t.Fatalf("message = %q", appErr.Message)
		}
	})

	t.Run("hijack attempt is audited", func(t *testing.T) {
		found := false
		for _, ev := range repo.AuditEvents() {
			if ev.Kind == audit.EventHijackDetected && ev.SessionID == res.SessionID {
				found = true
			}
		}
		if !found {
			t.Fatal("expected hijack_detected audit event")
		}
	})

	t.Run("revoked session", func(t *testing.T) {
		if appErr := m.Logout(ctx, res.SessionID); appErr != nil {
			t.Fatalf("Logout: %v", appErr)
		}
		_, appErr := m.Validate(ctx, res.SessionID, metaA)
		if appErr == nil || appErr.Code != "session_revoked" {
			t.Fatalf("got %v", appErr)
		}
		if appErr.Message != "Invalid or expired session" {
			t.Fatalf("message = %q", appErr.Message)
		}
	})
}

func TestValidateExpiredToken(t *testing.T) {
	m, repo := newTestManager(t, -time.Minute) // el token nace vencido
	seedUser(t, repo, "joao@x.com", "p", true)
	ctx := context.Background()

	res, _ := m.Login(ctx, "joao@x.com", "p", metaA)
	_, appErr := m.Validate(ctx, res.SessionID, metaA)
	if appErr == nil || appErr.Code != "token_invalid_or_expired" {
		t.Fatalf("got %v", appErr)
	}
}

func TestValidateUIDMismatch(t *testing.T) {
	m, repo := newTestManager(t, 24*time.Hour)
	seedUser(t, repo, "joao@x.com", "p", true)
	other := seedUser(t, repo, "ana@x.com", "p", true)
	ctx := context.Background()

	res, _ := m.Login(ctx, "joao@x.com", "p", metaA)

	// fila manipulada: token firmado para otro uid
	codec := jwt.NewCodec("test-secret", "thedevkitchen-api-gateway", "session-security", time.Hour, 24*time.Hour)
	fp := fingerprint.Extract(metaA, fingerprint.DefaultSettings)
	forged, err := codec.SignSessionToken(other.ID, fp)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	row, _ := repo.GetSession(ctx, res.SessionID)
	tampered := &core.APISession{ID: "tampered", UserID: row.UserID, Token: forged}
	if err := repo.RotateSession(ctx, tampered); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	_, appErr := m.Validate(ctx, "tampered", metaA)
	if appErr == nil || appErr.Code != "uid_mismatch" {
		t.Fatalf("got %v", appErr)
	}
}

func TestStolenSessionResolvesToOwner(t *testing.T) {
	m, repo := newTestManager(t, 24*time.Hour)
	seedUser(t, repo, "joao@x.com", "p", true)
	seedUser(t, repo, "ana@x.com", "p", true)
	ctx := context.Background()

	joao, _ := m.Login(ctx, "joao@x.com", "p", metaA)

	// un atacante con huella idéntica presenta el session_id de joao:
	// la identidad resuelta es la del dueño de la fila, por diseño
	got, appErr := m.Validate(ctx, joao.SessionID, metaA)
	if appErr != nil {
		t.Fatalf("Validate: %v", appErr)
	}
	if got.Email != "joao@x.com" {
		t.Fatalf("resolved %q, want the session owner", got.Email)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	m, repo := newTestManager(t, 24*time.Hour)
	seedUser(t, repo, "joao@x.com", "p", true)
	ctx := context.Background()

	res, _ := m.Login(ctx, "joao@x.com", "p", metaA)

	for i := 0; i < 2; i++ {
		if appErr := m.Logout(ctx, res.SessionID); appErr != nil {
			t.Fatalf("Logout #%d: %v", i+1, appErr)
		}
	}
	if appErr := m.Logout(ctx, "never-existed"); appErr != nil {
		t.Fatalf("Logout unknown: %v", appErr)
	}
	if appErr := m.Logout(ctx, ""); appErr == nil || appErr.HTTPStatus != 400 {
		t.Fatalf("Logout empty: got %v, want 400", appErr)
	}
}

func TestCloseStale(t *testing.T) {
	m, repo := newTestManager(t, 24*time.Hour)
	seedUser(t, repo, "joao@x.com", "p", true)
	ctx := context.Background()

	res, _ := m.Login(ctx, "joao@x.com", "p", metaA)
	if err := repo.TouchSession(ctx, res.SessionID, time.Now().Add(-48*time.Hour)); err != nil {
		t.Fatalf("touch: %v", err)
	}

	n, err := m.CloseStale(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CloseStale: %v", err)
	}
	if n != 1 {
		t.Fatalf("closed %d, want 1", n)
	}
	if _, appErr := m.Validate(ctx, res.SessionID, metaA); appErr == nil {
		t.Fatal("stale session must no longer validate")
	}
}
