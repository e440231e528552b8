// Package password concentra el hashing de credenciales: passwords de
// usuarios y client secrets de aplicaciones. Ambos se guardan como bcrypt.
package password

import "golang.org/x/crypto/bcrypt"

// Hash genera un hash bcrypt con el costo por defecto.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara plain contra un hash bcrypt. Nunca distingue entre hash
// inválido y password incorrecto: ambos son "no verifica".
func Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
