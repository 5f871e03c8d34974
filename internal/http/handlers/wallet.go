package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/service"
)

// WalletHandler serves the caller's wallet summary and ledger.
type WalletHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewWalletHandler constructs the handler.
func NewWalletHandler(svc *service.Service, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{svc: svc, logger: logger}
}

// Register attaches wallet routes.
func (h *WalletHandler) Register(r chi.Router) {
	r.Get("/wallet", h.handleSummary)
	r.Get("/wallet/transactions", h.handleTransactions)
}

func (h *WalletHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.WalletSummary(r.Context(), caller(r).ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", summary)
}

func (h *WalletHandler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, err := h.svc.ListTransactions(r.Context(), caller(r).ID, models.TransactionFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.List(w, txs)
}
