package main

import (
	"net/http"

	"github.com/benvon/smart-tasks/internal/app"
	"github.com/benvon/smart-tasks/internal/config"
	"github.com/benvon/smart-tasks/internal/handlers"
	"github.com/benvon/smart-tasks/internal/middleware"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

type routerConfig struct {
	cfg         *config.Config
	coord       *app.Coordinator
	health      *handlers.HealthChecker
	rateLimit   func(http.Handler) http.Handler
	openAPIPath string
	tracing     bool
	logger      *zap.Logger
}

// newRouter builds the full HTTP surface: middleware chain, health, OpenAPI and /api/v1
func newRouter(rc routerConfig) *mux.Router {
	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, first registered outermost
	if rc.tracing {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(rc.cfg.EnableHSTS))
	r.Use(middleware.CORS(rc.cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(rc.logger))
	r.Use(middleware.Audit(rc.logger))
	r.Use(middleware.Logging(rc.logger))

	r.HandleFunc("/healthz", rc.health.HealthCheck).Methods(http.MethodGet)
	handlers.NewOpenAPIHandler(rc.openAPIPath).RegisterRoutes(r)

	// Registered ahead of /api/v1 so preflights never hit a method mismatch there
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	if rc.rateLimit != nil {
		apiRouter.Use(rc.rateLimit)
	}
	handlers.RegisterAPIRoutes(apiRouter, rc.coord, rc.logger)

	return r
}
