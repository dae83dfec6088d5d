package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"menu-auth/internal/container"
	"menu-auth/internal/middleware"
)

// NewRouter configures the HTTP routes. ctx bounds background work such as
// rate limiter eviction.
func NewRouter(ctx context.Context, container *container.Container) *chi.Mux {
	cfg := container.GetConfig()
	log := container.GetLogger()
	sessions := container.Services.Sessions

	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.FrontendOrigins()))
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	healthHandler := NewHealthHandler(container)
	authHandler := NewAuthHandler(container)
	authLimiter := middleware.NewRateLimiter(ctx, rate.Limit(cfg.AuthRateLimit), cfg.AuthRateBurst, log)

	r.Get("/", healthHandler.Check)
	r.Get("/health", healthHandler.Check)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.LimitByIP)
			r.Get("/google", authHandler.Initiate)
			r.Get("/google/callback", authHandler.Callback)
		})

		r.Post("/logout", authHandler.Logout)

		r.With(middleware.RequireSession(sessions, log)).Get("/me", authHandler.Me)
		r.With(middleware.OptionalSession(sessions, log)).Get("/session", authHandler.Session)
	})

	r.With(middleware.RequireSession(sessions, log)).Get("/api/protected", authHandler.Protected)

	r.NotFound(NotFound(log))

	log.Info("Router configured successfully")
	return r
}
