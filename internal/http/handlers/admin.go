package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/service"
)

// AdminHandler serves user management, audit and dashboard routes.
type AdminHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(svc *service.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

// RegisterAdmin attaches user management, stats and audit routes under /admin.
func (h *AdminHandler) RegisterAdmin(r chi.Router) {
	r.Get("/stats", h.handleStats)
	r.Get("/users", h.handleListUsers)
	r.Get("/users/{id}", h.handleGetUser)
	r.Patch("/users/{id}", h.handleUpdateUser)
	r.Post("/users/{id}/adjust-balance", h.handleAdjustBalance)
	r.Get("/logs", h.handleLogs)
	r.Post("/yields/accrue", h.handleAccrue)
}

func (h *AdminHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", stats)
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.svc.ListUsers(r.Context(), models.ProfileFilter{
		Search: q.Get("q"),
		Role:   q.Get("role"),
		Status: q.Get("status"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.List(w, users)
}

func (h *AdminHandler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.GetUserDetail(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", detail)
}

func (h *AdminHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.AdminUpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateUser(r.Context(), caller(r).ID, id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "user updated", updated)
}

func (h *AdminHandler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.AdjustBalanceRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := h.svc.AdjustBalance(r.Context(), caller(r).ID, id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "balance adjusted", tx)
}

func (h *AdminHandler) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.ListAdminLogs(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.List(w, logs)
}

// handleAccrue runs yield accrual on demand, e.g. after the scheduler was down.
func (h *AdminHandler) handleAccrue(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.AccrueYields(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "yield accrual finished", report)
}
