package core

import "errors"

// Errores sentinela del store. Los servicios los traducen a errores de API;
// acá no se decide ningún status HTTP.
var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
	ErrInvalid  = errors.New("store: invalid argument")
)
