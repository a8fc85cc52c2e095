package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/stowage/service/internal/auth"
	"github.com/stowage/service/internal/config"
	"github.com/stowage/service/internal/file"
	appMiddleware "github.com/stowage/service/internal/middleware"
	"github.com/stowage/service/internal/response"

	_ "github.com/stowage/service/docs/swagger"
)

func newRouter(
	cfg *config.Config,
	logger *slog.Logger,
	fileSvc *file.Service,
	fileHandler *file.Handler,
	authSvc *auth.Service,
	authHandler *auth.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.RequestLogger(logger))
	r.Use(appMiddleware.Metrics)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", appMiddleware.APIKeyHeader},
		ExposedHeaders: []string{"ETag", "Content-Length"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := fileSvc.Ping(r.Context()); err != nil {
			logger.Warn("health check failed", slog.String("error", err.Error()))
			response.ServiceUnavailable(w, "database unavailable")
			return
		}
		response.OK(w, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	requireAuth := appMiddleware.RequireAPIKey(authSvc)
	var readAuth func(http.Handler) http.Handler
	if cfg.AuthOnRead {
		readAuth = requireAuth
	}

	r.With(requireAuth).Post("/auth/token", authHandler.IssueToken)
	fileHandler.RegisterRoutes(r, requireAuth, readAuth)

	return r
}
