package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/service"
)

// NotificationHandler serves the in-app notification inbox and admin broadcasts.
type NotificationHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc *service.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

// Register attaches the caller's inbox routes.
func (h *NotificationHandler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Post("/notifications/read-all", h.handleReadAll)
	r.Post("/notifications/{id}/read", h.handleRead)
}

// RegisterAdmin attaches the broadcast route under /admin.
func (h *NotificationHandler) RegisterAdmin(r chi.Router) {
	r.Post("/notifications", h.handleBroadcast)
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListNotifications(r.Context(), caller(r).ID, queryBool(r, "unread"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.List(w, list)
}

func (h *NotificationHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkNotificationRead(r.Context(), caller(r).ID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "notification marked as read", nil)
}

func (h *NotificationHandler) handleReadAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllNotificationsRead(r.Context(), caller(r).ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "notifications marked as read", map[string]int{"updated": n})
}

func (h *NotificationHandler) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req dto.BroadcastRequest
	if !decode(w, r, &req) {
		return
	}
	sent, err := h.svc.Broadcast(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "notification sent", map[string]int{"recipients": sent})
}
