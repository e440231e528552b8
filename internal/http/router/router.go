// Package router arma el árbol de rutas chi con su cadena de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thedevkitchen/apigateway/internal/http/controllers"
	"github.com/thedevkitchen/apigateway/internal/http/middlewares"
	"github.com/thedevkitchen/apigateway/internal/metrics"
	"github.com/thedevkitchen/apigateway/internal/rate"
)

type Options struct {
	Controllers *controllers.Controllers
	Bearer      *middlewares.Bearer
	Limiter     *rate.Limiter // nil deshabilita el rate limit
	CORSOrigins []string
}

func New(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.RequestID)
	r.Use(middlewares.Recover)
	r.Use(middlewares.SecurityHeaders)
	r.Use(middlewares.CORS(opts.CORSOrigins))
	r.Use(middlewares.Logging)

	c := opts.Controllers

	r.Get("/healthz", c.Health.Livez)
	r.Get("/readyz", c.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// endpoints OAuth: solo credenciales de aplicación, sin capa bearer
	r.Route("/auth", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(middlewares.RateLimit(opts.Limiter))
		}
		r.Post("/token", c.Auth.Token)
		r.Post("/refresh", c.Auth.Refresh)
		r.Post("/revoke", c.Auth.Revoke)
	})

	// endpoints de usuario: exigen un access token de aplicación vigente
	r.Group(func(r chi.Router) {
		r.Use(opts.Bearer.Require)
		if opts.Limiter != nil {
			r.Use(middlewares.RateLimit(opts.Limiter))
		}
		r.Post("/users/login", c.Users.Login)
		r.Post("/users/logout", c.Users.Logout)
		r.Post("/me", c.Users.Me)
	})

	return r
}
