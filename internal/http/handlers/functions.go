package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/middleware"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/service"
)

// FunctionsHandler exposes the JSON-in/JSON-out operations other systems call:
// transactional email and wallet balance recalculation.
type FunctionsHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewFunctionsHandler constructs the handler.
func NewFunctionsHandler(svc *service.Service, logger *zap.Logger) *FunctionsHandler {
	return &FunctionsHandler{svc: svc, logger: logger}
}

// Register expects to be mounted behind InternalKey and Authenticate.
func (h *FunctionsHandler) Register(r chi.Router) {
	r.Post("/functions/send-email", h.handleSendEmail)
	r.Post("/functions/recalculate-balance", h.handleRecalculate)
}

func privileged(r *http.Request) bool {
	return middleware.IsInternal(r.Context()) || caller(r).IsAdmin()
}

func (h *FunctionsHandler) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	if !privileged(r) {
		respond.Error(w, http.StatusForbidden, "admin access required")
		return
	}
	var req dto.SendEmailRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SendEmail(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "email sent", res)
}

// handleRecalculate lets admins and internal callers recalculate any wallet;
// investors may only recalculate their own.
func (h *FunctionsHandler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	var req dto.RecalculateBalanceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == 0 && !middleware.IsInternal(r.Context()) {
		req.UserID = caller(r).ID
	}
	if req.UserID <= 0 {
		respond.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if !privileged(r) && req.UserID != caller(r).ID {
		respond.Error(w, http.StatusForbidden, "you can only recalculate your own balance")
		return
	}
	res, err := h.svc.RecalculateBalance(r.Context(), req.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "balance recalculated", res)
}
