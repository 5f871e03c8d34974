// Package handlers exposes the service over JSON HTTP routes. Every response
// uses the respond envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/middleware"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/service"
	"github.com/hongminglow/invest-be/internal/storage"
)

const maxBodyBytes = 1 << 20

// writeError maps service and storage errors to HTTP statuses.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrAccountBlocked):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, storage.ErrAlreadyExists), errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientFunds), errors.Is(err, service.ErrProjectUnavailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrEmailDelivery):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		respond.Error(w, status, "internal server error")
		return
	}
	respond.Error(w, status, err.Error())
}

// decode reads a JSON body into dst. It rejects unknown fields so typos in
// amounts or ids surface as 400s.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

// caller returns the authenticated profile. Routes are mounted behind
// Authenticate so a missing profile is a wiring bug.
func caller(r *http.Request) models.Profile {
	p, _ := middleware.ProfileFromContext(r.Context())
	return p
}
