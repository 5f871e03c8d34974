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

// InvestmentHandler serves investment creation and history.
type InvestmentHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewInvestmentHandler constructs the handler.
func NewInvestmentHandler(svc *service.Service, logger *zap.Logger) *InvestmentHandler {
	return &InvestmentHandler{svc: svc, logger: logger}
}

// Register attaches investment routes.
func (h *InvestmentHandler) Register(r chi.Router) {
	r.Post("/investments", h.handleCreate)
	r.Get("/investments", h.handleList)
	r.Get("/investments/{id}", h.handleGet)
}

func (h *InvestmentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.InvestRequest
	if !decode(w, r, &req) {
		return
	}
	inv, err := h.svc.Invest(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "investment created", inv)
}

func (h *InvestmentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	investments, err := h.svc.ListInvestments(r.Context(), models.InvestmentFilter{
		UserID: caller(r).ID,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.List(w, investments)
}

func (h *InvestmentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	me := caller(r)
	inv, err := h.svc.GetInvestment(r.Context(), me.ID, id, me.IsAdmin())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", inv)
}
