// Package tenantctx transporta el tenant y el principal autenticado como
// valores del context del request.
//
// Nunca hay estado global ni thread-local: el tenant vive únicamente en el
// context derivado para ese request, así un worker reutilizado no puede ver
// el tenant del request anterior. Clear() permite blanquear explícitamente
// un context derivado antes de cederlo fuera del request.
package tenantctx

import "context"

type tenantKey struct{}
type principalKey struct{}

// Principal es el caller autenticado adjunto al request.
type Principal struct {
	UserID   string
	TenantID int64
	Roles    []string
}

// HasRole indica si el principal tiene el rol dado.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithTenant retorna un context derivado que transporta el tenant.
func WithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantID extrae el tenant del context.
// El segundo valor es false si no hay tenant poblado.
func TenantID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(tenantKey{}).(int64)
	return v, ok
}

// WithPrincipal retorna un context derivado que transporta el principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extrae el principal del context.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// Clear retorna un context derivado sin tenant ni principal, aunque algún
// ancestro los tenga poblados. Usar al salir de un request si el context
// derivado va a sobrevivirlo.
func Clear(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, tenantKey{}, nil)
	return context.WithValue(ctx, principalKey{}, nil)
}
