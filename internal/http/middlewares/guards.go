package middlewares

import (
	"net/http"

	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
)

// ─── Guards ──────────────────────────────────────────────────────────
//
// Los guards son la contracara de WithAuthentication: aquel puebla la
// identidad sin juzgar, estos cortan. La decisión queda declarada en la
// ruta, no escondida en anotaciones.

// Predicate evalúa una condición sobre el principal verificado.
type Predicate func(p *tenantctx.Principal) bool

// HasRole acepta si el principal tiene el rol dado.
func HasRole(role string) Predicate {
	return func(p *tenantctx.Principal) bool { return p.HasRole(role) }
}

// AllOf acepta solo si todos los predicados aceptan.
func AllOf(preds ...Predicate) Predicate {
	return func(p *tenantctx.Principal) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// AnyOf acepta si al menos un predicado acepta.
func AnyOf(preds ...Predicate) Predicate {
	return func(p *tenantctx.Principal) bool {
		for _, pred := range preds {
			if pred(p) {
				return true
			}
		}
		return false
	}
}

// RequireAuth exige un principal verificado. Sin identidad responde 401.
func RequireAuth() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := tenantctx.PrincipalFrom(r.Context()); !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require convierte un predicado en gate: 401 sin principal, 403 si el
// predicado rechaza.
func Require(pred Predicate) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := tenantctx.PrincipalFrom(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			if !pred(p) {
				httperrors.WriteError(w, httperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole exige al menos uno de los roles dados.
func RequireRole(roles ...string) Middleware {
	preds := make([]Predicate, len(roles))
	for i, role := range roles {
		preds[i] = HasRole(role)
	}
	return Require(AnyOf(preds...))
}
