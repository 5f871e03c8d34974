package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/service"
)

// AuthHandler owns the register and login endpoints.
type AuthHandler struct {
	svc        *service.Service
	logger     *zap.Logger
	loginGuard func(http.Handler) http.Handler
}

// NewAuthHandler constructs the handler. loginGuard wraps the login route,
// typically with a rate limiter; nil leaves it unguarded.
func NewAuthHandler(svc *service.Service, logger *zap.Logger, loginGuard func(http.Handler) http.Handler) *AuthHandler {
	if loginGuard == nil {
		loginGuard = func(next http.Handler) http.Handler { return next }
	}
	return &AuthHandler{svc: svc, logger: logger, loginGuard: loginGuard}
}

// Register attaches auth routes.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.With(h.loginGuard).Post("/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	created, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "account created", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", resp)
}
