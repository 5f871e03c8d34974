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

// ProjectHandler serves the public catalogue and admin project management.
type ProjectHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewProjectHandler constructs the handler.
func NewProjectHandler(svc *service.Service, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// Register attaches the public catalogue routes.
func (h *ProjectHandler) Register(r chi.Router) {
	r.Get("/projects", h.list(false))
	r.Get("/projects/{id}", h.get(false))
}

// RegisterAdmin attaches management routes under the admin router.
func (h *ProjectHandler) RegisterAdmin(r chi.Router) {
	r.Get("/projects", h.list(true))
	r.Get("/projects/{id}", h.get(true))
	r.Post("/projects", h.handleCreate)
	r.Put("/projects/{id}", h.handleUpdate)
	r.Delete("/projects/{id}", h.handleDelete)
}

func (h *ProjectHandler) list(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := models.ProjectFilter{
			Statuses: queryList(r, "status"),
			Category: r.URL.Query().Get("category"),
			Search:   r.URL.Query().Get("q"),
		}
		projects, err := h.svc.ListProjects(r.Context(), filter, admin)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		respond.List(w, projects)
	}
}

func (h *ProjectHandler) get(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		project, err := h.svc.GetProject(r.Context(), id, admin)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		respond.JSON(w, http.StatusOK, "ok", project)
	}
}

func (h *ProjectHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.ProjectRequest
	if !decode(w, r, &req) {
		return
	}
	project, err := h.svc.CreateProject(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "project created", project)
}

func (h *ProjectHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ProjectRequest
	if !decode(w, r, &req) {
		return
	}
	project, err := h.svc.UpdateProject(r.Context(), caller(r).ID, id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "project updated", project)
}

func (h *ProjectHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	project, deleted, err := h.svc.DeleteProject(r.Context(), caller(r).ID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if deleted {
		respond.JSON(w, http.StatusOK, "project deleted", nil)
		return
	}
	respond.JSON(w, http.StatusOK, "project has investments and was closed instead", project)
}
