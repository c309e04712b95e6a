// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/tenantgate/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/tenantgate/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/tenantgate/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/http/middlewares"
	"github.com/dropDatabas3/tenantgate/internal/metrics"
	"github.com/dropDatabas3/tenantgate/internal/rate"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
)

// Deps contiene todo lo que el router necesita para montar las rutas.
type Deps struct {
	Auth    *authctrl.Controllers
	Tenants *adminctrl.TenantsController
	Health  *healthctrl.HealthController

	Codec   *tokens.Codec
	Limiter rate.Limiter // nil = sin rate limiting

	// Metrics es el handler de /metrics. nil = no se monta.
	Metrics http.Handler

	// AllowedOrigins para CORS. Vacío = no se permite cross-origin.
	AllowedOrigins []string
}

// New construye el handler raíz.
//
// Dos superficies con stacks distintos: /api pasa por el stack completo
// (request id, CORS, métricas, logging, rate limit, autenticación);
// /healthz, /readyz y /metrics van por fuera de auth y rate limiting
// para que un backend saturado no tumbe las sondas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Stack global. Recover va primero para atrapar panics de todo lo
	// demás; logging al final así ve request id y tenant resueltos.
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithCORS(deps.AllowedOrigins))
	r.Use(metrics.WithHTTP)
	r.Use(middlewares.WithLogging())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Sondas e instrumentación, sin auth ni rate limit.
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		// Flujos anónimos: el rate limit corre ANTES de mirar
		// credenciales, cada operación con su propia llave.
		api.Route("/auth", func(ar chi.Router) {
			ar.With(rateLimitFor(deps.Limiter, rate.KeyLogin)).
				Post("/login", deps.Auth.Login.Login)
			ar.With(rateLimitFor(deps.Limiter, rate.KeyRefresh)).
				Post("/refresh", deps.Auth.Refresh.Refresh)
			ar.Post("/logout", deps.Auth.Logout.Logout)
			ar.Get("/validate", deps.Auth.Validate.Validate)
		})

		// Superficie autenticada. WithAuthentication puebla la
		// identidad y deja pasar; los guards cortan por ruta.
		api.Group(func(g chi.Router) {
			g.Use(rateLimitFor(deps.Limiter, rate.KeyAuthentication))
			g.Use(middlewares.WithAuthentication(deps.Codec))

			g.With(middlewares.RequireAuth()).
				Get("/me", deps.Auth.Me.Me)
			g.With(middlewares.RequireRole("ADMIN")).
				Post("/admin/tenants", deps.Tenants.Create)
		})
	})

	return r
}

func rateLimitFor(limiter rate.Limiter, op string) middlewares.Middleware {
	return middlewares.WithRateLimit(middlewares.RateLimitConfig{
		Limiter: limiter,
		KeyFunc: middlewares.KeyByIP(op),
	})
}
