package tokens

import (
	"crypto/rand"
	"math/big"
)

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewClientID genera un client_id público con prefijo reconocible.
func NewClientID() (string, error) {
	s, err := GenerateOpaqueToken(16)
	if err != nil {
		return "", err
	}
	return "client_" + s, nil
}

// NewClientSecret genera un client secret alfanumérico de 64 caracteres.
// Se muestra una sola vez; en el store solo vive su hash bcrypt.
func NewClientSecret() (string, error) {
	out := make([]byte, 64)
	max := big.NewInt(int64(len(secretAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = secretAlphabet[n.Int64()]
	}
	return string(out), nil
}
