// Package audit emite eventos de seguridad estructurados (logins,
// rotaciones, violaciones de tenant) sobre el logger del servicio.
// Hoy el sink es el log; puede cablearse a DB o a un colector externo.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
)

// Event escribe un evento de auditoría. Si el ctx trae tenant o
// principal, se agregan como campos automáticamente.
func Event(ctx context.Context, name string, fields ...zap.Field) {
	enriched := make([]zap.Field, 0, len(fields)+3)
	enriched = append(enriched, zap.String("event", name))

	if tid, ok := tenantctx.TenantID(ctx); ok {
		enriched = append(enriched, logger.TenantID(tid))
	}
	if p, ok := tenantctx.PrincipalFrom(ctx); ok {
		enriched = append(enriched, logger.UserID(p.UserID))
	}
	enriched = append(enriched, fields...)

	logger.Named("audit").Info("audit", enriched...)
}
