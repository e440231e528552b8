// Package audit registra el trail de seguridad (logins, revocaciones,
// hijacks detectados). Un fallo de auditoría se loguea pero nunca corta el
// request: el trail es best-effort.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/thedevkitchen/apigateway/internal/http/middlewares"
	"github.com/thedevkitchen/apigateway/internal/observability/logger"
	"github.com/thedevkitchen/apigateway/internal/store/core"
)

// Tipos de evento conocidos.
const (
	EventLoginSuccess   = "login_success"
	EventLoginFailed    = "login_failed"
	EventLogout         = "logout"
	EventHijackDetected = "hijack_detected"
	EventTokenIssued    = "token_issued"
	EventTokenRevoked   = "token_revoked"
)

type Recorder struct {
	repo core.Repository
}

func NewRecorder(repo core.Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record persiste el evento. Nunca devuelve error al caller.
// Si el request pasó por la capa bearer, el evento queda atribuido también
// a la aplicación que lo originó.
func (r *Recorder) Record(ctx context.Context, ev core.AuditEvent) {
	if ev.ClientID == "" {
		ev.ClientID = middlewares.ClientIDFrom(ctx)
	}
	if err := r.repo.CreateAuditEvent(ctx, &ev); err != nil {
		logger.From(ctx).Warn("audit event dropped",
			zap.String("kind", ev.Kind), zap.Error(err))
	}
}
