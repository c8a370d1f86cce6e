package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rateshop/internal/config"
	rateshttp "rateshop/internal/rates/transport/http"
	tokenhttp "rateshop/internal/token/transport/http"
	"rateshop/pkg/middleware"
)

type routes struct {
	auth   *tokenhttp.AuthHandler
	rates  *rateshttp.RatesHandler
	tokens middleware.TokenSource
}

// newRouter builds the HTTP surface. Forwarding headers are not trusted:
// the rate limiter keys on the connection's remote address.
func newRouter(cfg *config.Config, h routes, limiter *middleware.RateLimiter, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.MetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Group(func(mr chi.Router) {
		if cfg.MetricsUser != "" {
			mr.Use(chimw.BasicAuth("metrics", map[string]string{cfg.MetricsUser: cfg.MetricsPassword}))
		}
		mr.Handle("/metrics", promhttp.Handler())
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(limiter.Middleware)

		api.Route("/auth", func(ar chi.Router) {
			ar.With(middleware.ValidateRequest).Post("/callback", h.auth.Callback)
			ar.Delete("/session", h.auth.ClearSession)
			ar.Get("/status", h.auth.Status)
		})

		api.Route("/rates", func(rr chi.Router) {
			rr.Use(middleware.CarrierAuth(h.tokens, log.Named("carrier-auth")))
			rr.With(middleware.ValidateRequest).Post("/shop", h.rates.Shop)
		})
	})

	return r
}
