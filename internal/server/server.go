package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/auth"
	"github.com/hongminglow/invest-be/internal/config"
	"github.com/hongminglow/invest-be/internal/http/handlers"
	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/metrics"
	"github.com/hongminglow/invest-be/internal/middleware"
	"github.com/hongminglow/invest-be/internal/service"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Service *service.Service
	Tokens  *auth.TokenManager
	Limiter middleware.Limiter
	Logger  *zap.Logger
	Checks  []handlers.Check
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// NewRouter builds the full route tree. It is exported for handler tests.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	logger := deps.Logger
	svc := deps.Service

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	var loginGuard, withdrawalGuard func(http.Handler) http.Handler
	if deps.Limiter != nil {
		loginGuard = middleware.RateLimit(deps.Limiter, "login", cfg.LoginRateLimitPerMinute, middleware.ByClientIP, logger)
		withdrawalGuard = middleware.RateLimit(deps.Limiter, "withdrawal", cfg.WithdrawRateLimitPerMin, middleware.ByProfile, logger)
	}

	health := handlers.NewHealthHandler(time.Now(), deps.Checks...)
	authH := handlers.NewAuthHandler(svc, logger, loginGuard)
	profiles := handlers.NewProfileHandler(svc, logger)
	projects := handlers.NewProjectHandler(svc, logger)
	investments := handlers.NewInvestmentHandler(svc, logger)
	wallet := handlers.NewWalletHandler(svc, logger)
	transfers := handlers.NewTransferHandler(svc, logger)
	withdrawals := handlers.NewWithdrawalHandler(svc, logger, withdrawalGuard)
	notifications := handlers.NewNotificationHandler(svc, logger)
	admin := handlers.NewAdminHandler(svc, logger)
	functions := handlers.NewFunctionsHandler(svc, logger)

	authenticate := middleware.Authenticate(deps.Tokens, svc, logger)

	health.Register(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	authH.Register(r)
	projects.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.InternalKey(cfg.InternalAPIKey))
		r.Use(authenticate)
		functions.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		profiles.Register(r)
		investments.Register(r)
		wallet.Register(r)
		transfers.Register(r)
		withdrawals.Register(r)
		notifications.Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			admin.RegisterAdmin(r)
			projects.RegisterAdmin(r)
			transfers.RegisterAdmin(r)
			withdrawals.RegisterAdmin(r)
			notifications.RegisterAdmin(r)
		})
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
