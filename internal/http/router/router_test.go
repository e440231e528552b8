package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thedevkitchen/apigateway/internal/audit"
	"github.com/thedevkitchen/apigateway/internal/cache"
	"github.com/thedevkitchen/apigateway/internal/fingerprint"
	"github.com/thedevkitchen/apigateway/internal/http/controllers"
	"github.com/thedevkitchen/apigateway/internal/http/middlewares"
	"github.com/thedevkitchen/apigateway/internal/jwt"
	"github.com/thedevkitchen/apigateway/internal/oauth"
	"github.com/thedevkitchen/apigateway/internal/security/password"
	"github.com/thedevkitchen/apigateway/internal/session"
	"github.com/thedevkitchen/apigateway/internal/store/core"
	"github.com/thedevkitchen/apigateway/internal/store/memory"
)

// newTestGateway levanta el stack completo sobre el store en memoria, con
// TTL de cache de revocación mínimo para que los tests no duerman.
func newTestGateway(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	repo := memory.New()
	codec := jwt.NewCodec("test-secret", "thedevkitchen-api-gateway", "session-security", time.Hour, 24*time.Hour)
	rec := audit.NewRecorder(repo)

	grant := oauth.NewGrant(repo, codec, rec)
	sessions := session.NewManager(repo, codec, fingerprint.DefaultSettings, rec)
	bearer := middlewares.NewBearer(repo, codec, cache.NewMemory(time.Minute), time.Nanosecond)

	h := New(Options{
		Controllers: controllers.New(grant, sessions, repo),
		Bearer:      bearer,
	})
	return h, repo
}

func seed(t *testing.T, repo *memory.Store) {
	t.Helper()
	secretHash, err := password.Hash("s1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := repo.CreateApplication(context.Background(), &core.Application{
		Name: "erp", ClientID: "c1", SecretHash: secretHash, Active: true,
	}); err != nil {
		t.Fatalf("seed app: %v", err)
	}

	passHash, err := password.Hash("p")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := repo.CreateUser(context.Background(), &core.User{
		Name: "Joao", Email: "joao@x.com", PasswordHash: passHash, Active: true,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

type gwRequest struct {
	method, path string
	body         any
	bearer       string
	sessionID    string
	userAgent    string
}

func do(t *testing.T, h http.Handler, req gwRequest) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if req.body != nil {
		if err := json.NewEncoder(&buf).Encode(req.body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(req.method, req.path, &buf)
	r.RemoteAddr = "10.0.0.1:50000"
	r.Header.Set("Content-Type", "application/json")
	ua := req.userAgent
	if ua == "" {
		ua = "curl/8.0"
	}
	r.Header.Set("User-Agent", ua)
	r.Header.Set("Accept-Language", "es-AR")
	if req.bearer != "" {
		r.Header.Set("Authorization", "Bearer "+req.bearer)
	}
	if req.sessionID != "" {
		r.Header.Set("X-Session-Id", req.sessionID)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var out map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func issueToken(t *testing.T, h http.Handler) (access, refresh string) {
	t.Helper()
	w, out := do(t, h, gwRequest{method: "POST", path: "/auth/token", body: map[string]string{
		"grant_type": "client_credentials", "client_id": "c1", "client_secret": "s1",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("token: %d %s", w.Code, w.Body.String())
	}
	if out["token_type"] != "Bearer" || out["expires_in"] != float64(3600) {
		t.Fatalf("unexpected token response: %v", out)
	}
	return out["access_token"].(string), out["refresh_token"].(string)
}

func login(t *testing.T, h http.Handler, bearer string) string {
	t.Helper()
	w, out := do(t, h, gwRequest{method: "POST", path: "/users/login", bearer: bearer,
		body: map[string]string{"email": "joao@x.com", "password": "p"}})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	return out["session_id"].(string)
}

func errMessage(t *testing.T, out map[string]any) string {
	t.Helper()
	env, ok := out["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", out)
	}
	msg, _ := env["message"].(string)
	return msg
}

func TestFullFlow(t *testing.T) {
	h, repo := newTestGateway(t)
	seed(t, repo)

	access, _ := issueToken(t, h)

	// sin bearer no hay login
	if w, _ := do(t, h, gwRequest{method: "POST", path: "/users/login",
		body: map[string]string{"email": "joao@x.com", "password": "p"}}); w.Code != 401 {
		t.Fatalf("login without bearer: %d", w.Code)
	}

	sessA := login(t, h, access)

	w, out := do(t, h, gwRequest{method: "POST", path: "/me", bearer: access, sessionID: sessA})
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	if email := out["user"].(map[string]any)["email"]; email != "joao@x.com" {
		t.Fatalf("me email = %v", email)
	}

	// re-login: la sesión vieja muere, la nueva sirve
	sessB := login(t, h, access)
	if w, out := do(t, h, gwRequest{method: "POST", path: "/me", bearer: access, sessionID: sessA}); w.Code != 401 {
		t.Fatalf("old session: %d", w.Code)
	} else if errMessage(t, out) != "Invalid or expired session" {
		t.Fatalf("old session message: %q", errMessage(t, out))
	}
	if w, _ := do(t, h, gwRequest{method: "POST", path: "/me", bearer: access, sessionID: sessB}); w.Code != http.StatusOK {
		t.Fatalf("new session: %d", w.Code)
	}
}

func TestMeRejectsHijackAndMissingSession(t *testing.T) {
	h, repo := newTestGateway(t)
	seed(t, repo)
	access, _ := issueToken(t, h)
	sess := login(t, h, access)

	// otra huella (user-agent distinto) con session_id robado
	w, out := do(t, h, gwRequest{method: "POST", path: "/me", bearer: access,
		sessionID: sess, userAgent: "Mozilla/5.0"})
	if w.Code != 401 {
		t.Fatalf("hijack: %d", w.Code)
	}
	if errMessage(t, out) != "Session validation failed" {
		t.Fatalf("hijack message: %q", errMessage(t, out))
	}

	// sin X-Session-Id
	w, out = do(t, h, gwRequest{method: "POST", path: "/me", bearer: access})
	if w.Code != 401 {
		t.Fatalf("missing session: %d", w.Code)
	}
	if errMessage(t, out) != "Session token required" {
		t.Fatalf("missing session message: %q", errMessage(t, out))
	}

	// la huella legítima sigue funcionando
	if w, _ := do(t, h, gwRequest{method: "POST", path: "/me", bearer: access, sessionID: sess}); w.Code != http.StatusOK {
		t.Fatalf("legit fingerprint after hijack attempt: %d", w.Code)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	h, repo := newTestGateway(t)
	seed(t, repo)
	access, _ := issueToken(t, h)
	sess := login(t, h, access)

	for i := 0; i < 2; i++ {
		w, out := do(t, h, gwRequest{method: "POST", path: "/users/logout", bearer: access,
			body: map[string]string{"session_id": sess}})
		if w.Code != http.StatusOK {
			t.Fatalf("logout #%d: %d", i+1, w.Code)
		}
		if out["message"] != "Logged out successfully" {
			t.Fatalf("logout message: %v", out["message"])
		}
	}

	w, out := do(t, h, gwRequest{method: "POST", path: "/users/logout", bearer: access, body: map[string]string{}})
	if w.Code != 400 {
		t.Fatalf("logout without session_id: %d", w.Code)
	}
	if errMessage(t, out) != "session_id is required" {
		t.Fatalf("logout message: %q", errMessage(t, out))
	}
}

func TestRefreshEndpoint(t *testing.T) {
	h, repo := newTestGateway(t)
	seed(t, repo)
	access, refresh := issueToken(t, h)

	w, out := do(t, h, gwRequest{method: "POST", path: "/auth/refresh",
		body: map[string]string{"refresh_token": refresh}})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}
	if out["refresh_token"] != refresh {
		t.Fatal("refresh_token must be preserved")
	}
	if out["access_token"] == access {
		t.Fatal("expected a new access token")
	}

	w, out = do(t, h, gwRequest{method: "POST", path: "/auth/refresh", body: map[string]string{}})
	if w.Code != 400 || out["error"] != "invalid_request" {
		t.Fatalf("refresh without token: %d %v", w.Code, out)
	}
	w, out = do(t, h, gwRequest{method: "POST", path: "/auth/refresh",
		body: map[string]string{"refresh_token": "bogus"}})
	if w.Code != 401 || out["error"] != "invalid_grant" {
		t.Fatalf("refresh with bogus token: %d %v", w.Code, out)
	}

	// credenciales que no corresponden al dueño del refresh token
	w, out = do(t, h, gwRequest{method: "POST", path: "/auth/refresh", body: map[string]string{
		"refresh_token": refresh, "client_id": "someone-else", "client_secret": "wrong",
	}})
	if w.Code != 401 || out["error"] != "invalid_client" {
		t.Fatalf("refresh with foreign credentials: %d %v", w.Code, out)
	}
	// las del dueño siguen sirviendo
	w, _ = do(t, h, gwRequest{method: "POST", path: "/auth/refresh", body: map[string]string{
		"refresh_token": refresh, "client_id": "c1", "client_secret": "s1",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh with owner credentials: %d %s", w.Code, w.Body.String())
	}
}

func TestRevokeEndpointPropagates(t *testing.T) {
	h, repo := newTestGateway(t)
	seed(t, repo)
	access, _ := issueToken(t, h)
	sess := login(t, h, access)

	w, out := do(t, h, gwRequest{method: "POST", path: "/auth/revoke",
		body: map[string]string{"token": access}})
	if w.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("revoke: %d %v", w.Code, out)
	}

	// token desconocido: también 200
	w, out = do(t, h, gwRequest{method: "POST", path: "/auth/revoke",
		body: map[string]string{"token": "bogus"}})
	if w.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("revoke unknown: %d %v", w.Code, out)
	}

	// con TTL de cache mínimo la revocación pega en el siguiente request
	time.Sleep(2 * time.Millisecond)
	if w, _ := do(t, h, gwRequest{method: "POST", path: "/me", bearer: access, sessionID: sess}); w.Code != 401 {
		t.Fatalf("revoked bearer still admitted: %d", w.Code)
	}
}

func TestOAuthErrorShape(t *testing.T) {
	h, repo := newTestGateway(t)
	seed(t, repo)

	w, out := do(t, h, gwRequest{method: "POST", path: "/auth/token", body: map[string]string{
		"grant_type": "client_credentials", "client_id": "c1", "client_secret": "wrong",
	}})
	if w.Code != 401 {
		t.Fatalf("bad secret: %d", w.Code)
	}
	// formato OAuth plano, no el envelope de usuario
	if out["error"] != "invalid_client" {
		t.Fatalf("oauth error shape: %v", out)
	}

	w, out = do(t, h, gwRequest{method: "POST", path: "/auth/token", body: map[string]string{
		"grant_type": "password", "client_id": "c1", "client_secret": "s1",
	}})
	if w.Code != 400 || out["error"] != "unsupported_grant_type" {
		t.Fatalf("grant type: %d %v", w.Code, out)
	}
}

func TestAuditEventsCarryCallingApplication(t *testing.T) {
	h, repo := newTestGateway(t)
	seed(t, repo)
	access, _ := issueToken(t, h)
	sess := login(t, h, access)

	w, _ := do(t, h, gwRequest{method: "POST", path: "/users/logout", bearer: access,
		body: map[string]string{"session_id": sess}})
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}

	var loginOK, logoutOK bool
	for _, ev := range repo.AuditEvents() {
		switch ev.Kind {
		case audit.EventLoginSuccess:
			loginOK = ev.ClientID == "c1" && ev.SessionID == sess
		case audit.EventLogout:
			logoutOK = ev.ClientID == "c1"
		}
	}
	if !loginOK {
		t.Fatal("login_success event must be attributed to the calling application")
	}
	if !logoutOK {
		t.Fatal("logout event must be attributed to the calling application")
	}
}

func TestHealthEndpoints(t *testing.T) {
	h, repo := newTestGateway(t)
	seed(t, repo)

	if w, _ := do(t, h, gwRequest{method: "GET", path: "/healthz"}); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	if w, _ := do(t, h, gwRequest{method: "GET", path: "/readyz"}); w.Code != http.StatusOK {
		t.Fatalf("readyz: %d", w.Code)
	}
}
