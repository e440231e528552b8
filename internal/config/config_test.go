package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRefusesMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatal("a missing jwt secret must be a fatal configuration error")
	}
}

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("FINGERPRINT_USE_IP", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.JWT.AccessTTL != "1h" || cfg.Session.TokenTTL != "24h" {
		t.Fatalf("ttl defaults: %q %q", cfg.JWT.AccessTTL, cfg.Session.TokenTTL)
	}
	if cfg.Security.RevocationCacheTTL != "5s" {
		t.Fatalf("revocation ttl = %q", cfg.Security.RevocationCacheTTL)
	}

	ip, ua, lang := cfg.FingerprintEnabled()
	if ip || !ua || !lang {
		t.Fatalf("fingerprint toggles: ip=%v ua=%v lang=%v", ip, ua, lang)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("server:\n  addr: \":7070\"\nsession:\n  token_ttl: 12h\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" || cfg.Session.TokenTTL != "12h" {
		t.Fatalf("yaml values not applied: %q %q", cfg.Server.Addr, cfg.Session.TokenTTL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	if _, err := Load(""); err == nil {
		t.Fatal("invalid duration must fail validation")
	}
}
