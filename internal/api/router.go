package api

import (
	"net/http"
	"time"

	"cfstats/internal/api/handler"
	"cfstats/internal/api/middleware"
	"cfstats/internal/app/service"
	"cfstats/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Services struct {
	Auth     *service.AuthService
	Stats    *service.StatsService
	Tracking *service.TrackingService
	Refresh  *service.RefreshJobService
}

func NewRouter(logger *zap.Logger, limiter *middleware.RateLimiter, gatherer prometheus.Gatherer, svc Services) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Monitor)
	// Long enough for a cold fetch: three paced upstream calls with retries.
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies a bearer token when present; Authenticator enforces it.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(v1 chi.Router) {
		if limiter != nil {
			v1.Use(limiter.Handler)
		}

		authHandler := handler.NewAuthHandler(svc.Auth)
		v1.Route("/auth", authHandler.RegisterRoutes)

		profileHandler := handler.NewProfileHandler(svc.Stats)
		v1.Route("/profiles", profileHandler.RegisterRoutes)

		trackingHandler := handler.NewTrackingHandler(svc.Tracking)
		v1.Get("/leaderboard", trackingHandler.Leaderboard)

		// Admin routes
		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.Authenticator)
			admin.Use(middleware.AdminOnly)

			admin.Route("/tracked", trackingHandler.RegisterRoutes)
			refreshHandler := handler.NewRefreshHandler(svc.Refresh)
			admin.Route("/refresh", refreshHandler.RegisterRoutes)
		})
	})

	return r
}
