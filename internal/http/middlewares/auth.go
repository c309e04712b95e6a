package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/tenantgate/internal/metrics"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
)

// BearerToken extrae el token del header Authorization.
// Retorna cadena vacía si no hay esquema Bearer.
func BearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("bearer "):])
}

// WithAuthentication verifica el access token del request y puebla el
// contexto con tenant y principal. NO rechaza: un token ausente o inválido
// deja pasar el request sin identidad y son los guards (RequireAuth,
// RequireRole) los que cortan. Así las rutas públicas y las protegidas
// comparten el mismo stack.
func WithAuthentication(codec *tokens.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := codec.VerifyKind(raw, tokens.KindAccess)
			metrics.RecordTokenVerification(tokens.VerificationResult(err))
			if err != nil {
				logger.From(r.Context()).Debug("bearer token rejected",
					logger.Component("middlewares.auth"),
					logger.Err(err),
				)
				// Blanquear cualquier identidad heredada antes de seguir
				// sin autenticación.
				next.ServeHTTP(w, r.WithContext(tenantctx.Clear(r.Context())))
				return
			}

			p := &tenantctx.Principal{
				UserID:   claims.Subject,
				TenantID: claims.TenantID,
				Roles:    claims.RoleList(),
			}
			ctx := tenantctx.WithTenant(r.Context(), claims.TenantID)
			ctx = tenantctx.WithPrincipal(ctx, p)

			// Enriquecer el logger scoped con la identidad verificada.
			ctx = logger.ToContext(ctx, logger.From(ctx).With(
				logger.TenantID(claims.TenantID),
				logger.UserID(claims.Subject),
			))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
