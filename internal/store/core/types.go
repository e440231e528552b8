// Package core define los tipos de dominio y el contrato de persistencia
// del gateway. Los adapters (pg, memory) implementan Repository.
package core

import "time"

// Application es una aplicación OAuth2 registrada (client credentials).
type Application struct {
	ID           string
	Name         string
	ClientID     string
	SecretHash   string // bcrypt del client_secret; el secreto en claro no se guarda
	Active       bool
	AllowedScope string
	CreatedAt    time.Time
}

// AppToken es un par access/refresh emitido a una aplicación.
// AccessJTI permite revocar el JWT aunque el access token no viva en claro.
type AppToken struct {
	ID           string
	AppID        string
	AccessToken  string
	AccessJTI    string
	RefreshToken string
	ExpiresAt    time.Time
	Revoked      bool
	CreatedAt    time.Time
	LastUsedAt   time.Time
}

// User es un usuario final que abre sesiones.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Active       bool
}

// APISession es una sesión de usuario con su security token vigente.
// Por usuario hay a lo sumo una sesión activa.
type APISession struct {
	ID           string
	UserID       string
	Token        string
	Active       bool
	CreatedAt    time.Time
	LastActivity time.Time
	LogoutAt     *time.Time // seteado al desactivar; las filas nunca se borran
}

// AuditEvent es una entrada del trail de seguridad.
type AuditEvent struct {
	ID        string
	Kind      string // login_success, login_failed, logout, hijack_detected, token_issued, token_revoked
	UserID    string
	ClientID  string
	SessionID string
	IP        string
	Detail    string
	At        time.Time
}
