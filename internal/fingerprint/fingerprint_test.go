package fingerprint

import (
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestExtractRespectsToggles(t *testing.T) {
	meta := RequestMeta{IP: "10.0.0.1", UserAgent: "curl/8.0", AcceptLanguage: "es-AR"}

	got := Extract(meta, DefaultSettings)
	want := Fingerprint{"ip": "10.0.0.1", "ua": "curl/8.0", "lang": "es-AR"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}

	got = Extract(meta, Settings{UseUserAgent: true})
	if len(got) != 1 || got["ua"] != "curl/8.0" {
		t.Fatalf("Extract with ua-only = %v", got)
	}
}

func TestEqual(t *testing.T) {
	a := Fingerprint{"ip": "10.0.0.1", "ua": "curl/8.0"}
	b := Fingerprint{"ua": "curl/8.0", "ip": "10.0.0.1"}
	if !a.Equal(b) {
		t.Fatal("expected equal fingerprints")
	}

	c := Fingerprint{"ip": "10.0.0.2", "ua": "curl/8.0"}
	if a.Equal(c) {
		t.Fatal("expected ip change to break equality")
	}

	// distinto número de componentes (toggle cambió entre login y validación)
	d := Fingerprint{"ua": "curl/8.0"}
	if a.Equal(d) {
		t.Fatal("expected missing component to break equality")
	}
}

func TestDiff(t *testing.T) {
	a := Fingerprint{"ip": "10.0.0.1", "ua": "curl/8.0", "lang": "es-AR"}
	b := Fingerprint{"ip": "10.0.0.1", "ua": "Mozilla/5.0", "lang": "en-US"}

	got := a.Diff(b)
	want := []string{"lang", "ua"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Diff = %v, want %v", got, want)
	}
	if d := a.Diff(a); d != nil {
		t.Fatalf("Diff with self = %v, want nil", d)
	}
}

func TestCanonicalIsDeterministic(t *testing.T) {
	fp := Fingerprint{"ua": "curl/8.0", "ip": "10.0.0.1", "lang": "es-AR"}
	want := "ip=10.0.0.1;lang=es-AR;ua=curl/8.0"
	if got := fp.Canonical(); got != want {
		t.Fatalf("Canonical = %q, want %q", got, want)
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/me", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	r.Header.Set("User-Agent", "curl/8.0")
	r.Header.Set("Accept-Language", "es-AR")

	meta := FromRequest(r)
	if meta.IP != "10.0.0.7" || meta.UserAgent != "curl/8.0" || meta.AcceptLanguage != "es-AR" {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.7")
	if got := FromRequest(r).IP; got != "203.0.113.9" {
		t.Fatalf("XFF ip = %q, want 203.0.113.9", got)
	}
}
