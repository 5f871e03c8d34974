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

// TransferHandler serves bank transfer deposits.
type TransferHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewTransferHandler constructs the handler.
func NewTransferHandler(svc *service.Service, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{svc: svc, logger: logger}
}

// Register attaches the investor deposit routes.
func (h *TransferHandler) Register(r chi.Router) {
	r.Post("/bank-transfers", h.handleSubmit)
	r.Get("/bank-transfers", h.handleList(false))
}

// RegisterAdmin attaches the deposit review routes under /admin.
func (h *TransferHandler) RegisterAdmin(r chi.Router) {
	r.Get("/bank-transfers", h.handleList(true))
	r.Post("/bank-transfers/{id}/confirm", h.handleConfirm)
	r.Post("/bank-transfers/{id}/reject", h.handleReject)
}

func (h *TransferHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req dto.BankTransferRequest
	if !decode(w, r, &req) {
		return
	}
	transfer, err := h.svc.SubmitBankTransfer(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "bank transfer submitted", transfer)
}

func (h *TransferHandler) handleList(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := models.TransferFilter{Status: r.URL.Query().Get("status")}
		if admin {
			filter.UserID = int64(queryInt(r, "user_id"))
		} else {
			filter.UserID = caller(r).ID
		}
		transfers, err := h.svc.ListBankTransfers(r.Context(), filter)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		respond.List(w, transfers)
	}
}

func (h *TransferHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	transfer, err := h.svc.ConfirmBankTransfer(r.Context(), caller(r).ID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "bank transfer confirmed", transfer)
}

func (h *TransferHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	transfer, err := h.svc.RejectBankTransfer(r.Context(), caller(r).ID, id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "bank transfer rejected", transfer)
}
