package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/service"
)

// ProfileHandler serves the caller's own profile and referral overview.
type ProfileHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc *service.Service, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// Register attaches profile and referral routes.
func (h *ProfileHandler) Register(r chi.Router) {
	r.Get("/me", h.handleGet)
	r.Patch("/me", h.handleUpdate)
	r.Get("/referrals", h.handleReferrals)
}

func (h *ProfileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", caller(r))
}

func (h *ProfileHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateProfile(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", updated)
}

func (h *ProfileHandler) handleReferrals(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.ReferralOverview(r.Context(), caller(r).ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", overview)
}
