// Package errors define el error tipado que atraviesa servicios y
// controllers. Los servicios nunca deciden formato de salida: devuelven
// *AppError y el boundary HTTP lo serializa según el estilo del endpoint
// (OAuth plano o envelope de usuario).
package errors

import "fmt"

// AppError es un error de aplicación con su mapeo HTTP ya resuelto.
// Message es apto para el cliente; Detail y Err son solo para logs.
type AppError struct {
	Code       string // estable, machine-readable (invalid_client, fingerprint_mismatch, ...)
	Message    string // mensaje público
	Detail     string // diagnóstico server-side
	HTTPStatus int
	Err        error // causa subyacente
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return e.Code
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail devuelve una copia con detalle de diagnóstico.
func (e *AppError) WithDetail(format string, args ...any) *AppError {
	cp := *e
	cp.Detail = fmt.Sprintf(format, args...)
	return &cp
}

// WithCause devuelve una copia con la causa subyacente.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

func newErr(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}
