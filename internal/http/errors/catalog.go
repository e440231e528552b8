package errors

import "net/http"

// ---- Errores OAuth (se serializan con WriteOAuth: {"error": code}) ----

var (
	ErrInvalidRequest       = newErr(http.StatusBadRequest, "invalid_request", "invalid_request")
	ErrUnsupportedGrantType = newErr(http.StatusBadRequest, "unsupported_grant_type", "unsupported_grant_type")
	// ErrInvalidClient cubre cliente desconocido, inactivo o secret
	// incorrecto con una respuesta idéntica: no se enumera nada.
	ErrInvalidClient = newErr(http.StatusUnauthorized, "invalid_client", "invalid_client")
	ErrInvalidGrant = newErr(http.StatusUnauthorized, "invalid_grant", "invalid_grant")
	// ErrInvalidToken se usa en la capa bearer, que sirve endpoints de
	// usuario: lleva mensaje legible además del code OAuth.
	ErrInvalidToken = newErr(http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
)

// ---- Errores de endpoints de usuario (envelope {"error":{status,message}}) ----

var (
	ErrInvalidCredentials = newErr(http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	ErrUserInactive       = newErr(http.StatusForbidden, "user_inactive", "User inactive")
	ErrSessionIDRequired  = newErr(http.StatusBadRequest, "session_id_required", "session_id is required")

	// Sub-razones del validador de sesión, en orden de chequeo. Cada una
	// mapea a uno de los tres mensajes públicos de sesión.
	ErrSessionNotFound     = newErr(http.StatusUnauthorized, "session_not_found", "Invalid or expired session")
	ErrSessionRevoked      = newErr(http.StatusUnauthorized, "session_revoked", "Invalid or expired session")
	ErrTokenRequired       = newErr(http.StatusUnauthorized, "token_required", "Session token required")
	ErrTokenInvalid        = newErr(http.StatusUnauthorized, "token_invalid_or_expired", "Invalid or expired session")
	ErrUIDMismatch         = newErr(http.StatusUnauthorized, "uid_mismatch", "Session validation failed")
	ErrFingerprintMismatch = newErr(http.StatusUnauthorized, "fingerprint_mismatch", "Session validation failed")
)

// ---- Genéricos ----

var (
	ErrBadJSON         = newErr(http.StatusBadRequest, "bad_request", "Invalid request body")
	ErrTooManyRequests = newErr(http.StatusTooManyRequests, "rate_limited", "Too many requests")
	ErrInternal        = newErr(http.StatusInternalServerError, "server_error", "Internal server error")
)
