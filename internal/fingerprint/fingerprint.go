// Package fingerprint deriva una huella determinística del request
// (ip, user-agent, accept-language) filtrada por toggles de configuración.
// La huella viaja embebida en el security token firmado y se recomputa en
// cada validación: si no coincide exacto, la sesión se rechaza.
package fingerprint

import (
	"net"
	"net/http"
	"sort"
	"strings"
)

// RequestMeta es la metadata del request de la que se deriva la huella.
// Se pasa explícita por parámetro: acá no hay request global ambiente.
type RequestMeta struct {
	IP             string
	UserAgent      string
	AcceptLanguage string
}

// Settings define qué componentes participan de la huella.
// Deshabilitar ip tiene sentido con usuarios detrás de VPN/móviles.
type Settings struct {
	UseIP             bool
	UseUserAgent      bool
	UseAcceptLanguage bool
}

// DefaultSettings habilita los tres componentes.
var DefaultSettings = Settings{UseIP: true, UseUserAgent: true, UseAcceptLanguage: true}

// Fingerprint es un mapa componente→valor. Solo contiene las keys cuyo
// toggle está habilitado, así dos extracciones con la misma config y el
// mismo request producen mapas idénticos.
type Fingerprint map[string]string

// Extract computa la huella para meta según settings.
func Extract(meta RequestMeta, s Settings) Fingerprint {
	fp := Fingerprint{}
	if s.UseIP {
		fp["ip"] = meta.IP
	}
	if s.UseUserAgent {
		fp["ua"] = meta.UserAgent
	}
	if s.UseAcceptLanguage {
		fp["lang"] = meta.AcceptLanguage
	}
	return fp
}

// Equal compara por igualdad exacta de mapas (mismas keys, mismos valores).
func (f Fingerprint) Equal(other Fingerprint) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Diff lista los componentes que no coinciden con other (en cualquier
// dirección). Solo para diagnóstico server-side; nunca se expone al cliente.
func (f Fingerprint) Diff(other Fingerprint) []string {
	seen := map[string]bool{}
	var out []string
	for k, v := range f {
		if ov, ok := other[k]; !ok || ov != v {
			out = append(out, k)
		}
		seen[k] = true
	}
	for k := range other {
		if !seen[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Canonical serializa la huella de forma determinística (keys ordenadas).
// Útil para logs y comparaciones byte a byte.
func (f Fingerprint) Canonical() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(f[k])
	}
	return b.String()
}

// FromRequest arma la RequestMeta desde un *http.Request.
// Respeta X-Forwarded-For (primera IP) si el gateway está detrás de un proxy.
func FromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		IP:             clientIP(r),
		UserAgent:      r.Header.Get("User-Agent"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	}
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
