package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/service"
)

// WithdrawalHandler serves withdrawal requests and their review.
type WithdrawalHandler struct {
	svc          *service.Service
	logger       *zap.Logger
	requestGuard func(http.Handler) http.Handler
}

// NewWithdrawalHandler constructs the handler. requestGuard wraps the create
// route, typically with a per-user rate limiter; nil leaves it unguarded.
func NewWithdrawalHandler(svc *service.Service, logger *zap.Logger, requestGuard func(http.Handler) http.Handler) *WithdrawalHandler {
	if requestGuard == nil {
		requestGuard = func(next http.Handler) http.Handler { return next }
	}
	return &WithdrawalHandler{svc: svc, logger: logger, requestGuard: requestGuard}
}

// Register attaches the investor withdrawal routes.
func (h *WithdrawalHandler) Register(r chi.Router) {
	r.With(h.requestGuard).Post("/withdrawals", h.handleRequest)
	r.Get("/withdrawals", h.handleList(false))
	r.Post("/withdrawals/{id}/cancel", h.handleCancel)
}

// RegisterAdmin attaches the withdrawal review routes under /admin.
func (h *WithdrawalHandler) RegisterAdmin(r chi.Router) {
	r.Get("/withdrawals", h.handleList(true))
	r.Post("/withdrawals/{id}/approve", h.handleApprove)
	r.Post("/withdrawals/{id}/reject", h.handleReject)
}

func (h *WithdrawalHandler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawalRequest
	if !decode(w, r, &req) {
		return
	}
	wr, err := h.svc.RequestWithdrawal(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "withdrawal requested", wr)
}

func (h *WithdrawalHandler) handleList(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := models.WithdrawalFilter{Status: r.URL.Query().Get("status")}
		if admin {
			filter.UserID = int64(queryInt(r, "user_id"))
		} else {
			filter.UserID = caller(r).ID
		}
		list, err := h.svc.ListWithdrawals(r.Context(), filter)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		respond.List(w, list)
	}
}

func (h *WithdrawalHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	wr, err := h.svc.CancelWithdrawal(r.Context(), caller(r).ID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "withdrawal cancelled", wr)
}

func (h *WithdrawalHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	wr, err := h.svc.ApproveWithdrawal(r.Context(), caller(r).ID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "withdrawal approved", wr)
}

func (h *WithdrawalHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	wr, err := h.svc.RejectWithdrawal(r.Context(), caller(r).ID, id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "withdrawal rejected", wr)
}
