// Package postgres embebe los archivos de migración del esquema.
package postgres

import "embed"

//go:embed *.sql
var Files embed.FS
