package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testCodec(ttl time.Duration) *Codec {
	return NewCodec("test-secret", "thedevkitchen-api-gateway", "session-security", ttl, ttl)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	c := testCodec(time.Hour)

	tok, jti, exp, err := c.SignAccessToken("client_abc")
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}
	if jti == "" {
		t.Fatal("expected non-empty jti")
	}
	if until := time.Until(exp); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("unexpected expiry distance: %v", until)
	}

	claims, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got := claims["client_id"]; got != "client_abc" {
		t.Fatalf("client_id = %v, want client_abc", got)
	}
	if got := claims["iss"]; got != "thedevkitchen-api-gateway" {
		t.Fatalf("iss = %v", got)
	}
}

func TestSessionTokenCarriesFingerprint(t *testing.T) {
	c := testCodec(time.Hour)
	fp := map[string]string{"ip": "10.0.0.1", "ua": "curl/8.0", "lang": "es-AR"}

	tok, err := c.SignSessionToken("42", fp)
	if err != nil {
		t.Fatalf("SignSessionToken: %v", err)
	}
	claims, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	sc, err := ParseSessionClaims(claims)
	if err != nil {
		t.Fatalf("ParseSessionClaims: %v", err)
	}
	if sc.UID != "42" {
		t.Fatalf("uid = %q, want 42", sc.UID)
	}
	for k, v := range fp {
		if sc.Fingerprint[k] != v {
			t.Fatalf("fingerprint[%s] = %q, want %q", k, sc.Fingerprint[k], v)
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	c := testCodec(-time.Minute)
	tok, _, _, err := c.SignAccessToken("client_abc")
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}
	if _, err := c.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestVerifyBadSignature(t *testing.T) {
	c := testCodec(time.Hour)
	other := NewCodec("another-secret", "a", "b", time.Hour, time.Hour)

	tok, _, _, err := other.SignAccessToken("client_abc")
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}
	if _, err := c.Verify(tok); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	c := testCodec(time.Hour)
	for _, raw := range []string{"", "garbage", "a.b", strings.Repeat("x", 300)} {
		if _, err := c.Verify(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Verify(%q) err = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestParseSessionClaimsMissingUID(t *testing.T) {
	c := testCodec(time.Hour)
	tok, _, _, err := c.SignAccessToken("client_abc") // access token: sin uid
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}
	claims, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := ParseSessionClaims(claims); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}
