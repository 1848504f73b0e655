// Package router arma el árbol de rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authctrl "github.com/aadidesign/SilentAlliance/internal/http/controllers/auth"
	healthctrl "github.com/aadidesign/SilentAlliance/internal/http/controllers/health"
	httperrors "github.com/aadidesign/SilentAlliance/internal/http/errors"
	mw "github.com/aadidesign/SilentAlliance/internal/http/middlewares"
	jwtx "github.com/aadidesign/SilentAlliance/internal/jwt"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Auth   *authctrl.Controllers
	Health *healthctrl.Controller
	Issuer *jwtx.Issuer

	// RateLimiter es opcional; nil desactiva el rate limiting.
	RateLimiter mw.RateLimiter

	// Registry para /metrics. nil usa el registry default.
	Registry *prometheus.Registry
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Chain base: recover primero, logging al final para medir todo lo demás.
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithSecurityHeaders())
	r.Use(mw.WithLogging())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Operacionales: sin rate limit ni no-store.
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metricsHandler(deps.Registry))
	r.Method(http.MethodGet, "/.well-known/jwks.json", jwksHandler(deps.Issuer))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(ar chi.Router) {
			// Los endpoints de auth nunca se cachean y se limitan por IP:
			// la clave no depende del body.
			ar.Use(mw.WithNoStore())
			if deps.RateLimiter != nil {
				ar.Use(mw.WithRateLimit(mw.RateLimitConfig{
					Limiter: deps.RateLimiter,
					KeyFunc: mw.IPOnlyRateKey,
				}))
			}

			ar.Post("/register", deps.Auth.Register.Register)
			ar.Post("/challenge", deps.Auth.Challenge.Challenge)
			ar.Post("/login", deps.Auth.Login.Login)
			ar.Post("/refresh", deps.Auth.Refresh.Refresh)
			ar.Post("/logout", deps.Auth.Logout.Logout)
			ar.Post("/logout-all", deps.Auth.Logout.LogoutAll)

			ar.Get("/oauth/authorize", deps.Auth.OAuth.Authorize)
			ar.Get("/oauth/{provider}/callback", deps.Auth.OAuth.Callback)
		})

		// Rutas autenticadas.
		v1.Group(func(pr chi.Router) {
			pr.Use(mw.WithNoStore())
			pr.Use(mw.RequireAuth(deps.Issuer))
			pr.Get("/me", deps.Auth.Me.Me)
		})
	})

	return r
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	if reg != nil {
		return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// jwksHandler publica las claves de verificación para servicios que validan
// los access tokens localmente.
func jwksHandler(issuer *jwtx.Issuer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write(issuer.JWKSJSON())
	})
}
