// Package jwt firma y verifica los dos tipos de token del gateway:
// access tokens de aplicación (client credentials) y security tokens de
// sesión (con fingerprint embebido). Ambos son HS256 con el mismo secreto.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Errores de verificación. Se distinguen internamente para loguear la causa
// real; hacia afuera todos colapsan en el mismo 401.
var (
	ErrExpired      = errors.New("jwt: token expired")
	ErrBadSignature = errors.New("jwt: invalid signature")
	ErrMalformed    = errors.New("jwt: malformed token")
)

// Codec firma y verifica tokens. Es seguro para uso concurrente.
type Codec struct {
	secret        []byte
	accessIssuer  string
	sessionIssuer string
	accessTTL     time.Duration
	sessionTTL    time.Duration
}

// NewCodec arma un codec. El secreto ya fue validado como no vacío por la
// capa de configuración.
func NewCodec(secret, accessIssuer, sessionIssuer string, accessTTL, sessionTTL time.Duration) *Codec {
	return &Codec{
		secret:        []byte(secret),
		accessIssuer:  accessIssuer,
		sessionIssuer: sessionIssuer,
		accessTTL:     accessTTL,
		sessionTTL:    sessionTTL,
	}
}

// AccessTTL expone la vida del access token (para expires_in).
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// SessionTTL expone la vida del security token de sesión.
func (c *Codec) SessionTTL() time.Duration { return c.sessionTTL }

// SignAccessToken emite un access token para una aplicación.
// Devuelve el token, su jti y el instante de expiración.
func (c *Codec) SignAccessToken(clientID string) (token, jti string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(c.accessTTL)
	jti = uuid.NewString()

	claims := jwtlib.MapClaims{
		"sub":       clientID,
		"client_id": clientID,
		"jti":       jti,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
		"iss":       c.accessIssuer,
	}
	token, err = jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, jti, expiresAt, nil
}

// SignSessionToken emite el security token de una sesión de usuario, con la
// huella del dispositivo embebida en los claims.
func (c *Codec) SignSessionToken(uid string, fp map[string]string) (string, error) {
	now := time.Now().UTC()
	claims := jwtlib.MapClaims{
		"uid":         uid,
		"fingerprint": fp,
		"iat":         now.Unix(),
		"exp":         now.Add(c.sessionTTL).Unix(),
		"iss":         c.sessionIssuer,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Verify valida firma y expiración y devuelve los claims.
// Errores posibles: ErrExpired, ErrBadSignature, ErrMalformed.
func (c *Codec) Verify(raw string) (jwtlib.MapClaims, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return nil, ErrBadSignature
	default:
		return nil, ErrMalformed
	}
}

// SessionClaims es la vista tipada de los claims de un security token.
type SessionClaims struct {
	UID         string
	Fingerprint map[string]string
}

// ParseSessionClaims extrae uid y fingerprint de claims ya verificados.
// Un token firmado por nosotros siempre los trae; si faltan es malformado.
func ParseSessionClaims(claims jwtlib.MapClaims) (SessionClaims, error) {
	out := SessionClaims{Fingerprint: map[string]string{}}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return SessionClaims{}, ErrMalformed
	}
	out.UID = uid

	if raw, ok := claims["fingerprint"].(map[string]any); ok {
		for k, v := range raw {
			s, ok := v.(string)
			if !ok {
				return SessionClaims{}, ErrMalformed
			}
			out.Fingerprint[k] = s
		}
	}
	return out, nil
}
