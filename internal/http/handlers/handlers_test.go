package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/invest-be/internal/service"
	"github.com/hongminglow/invest-be/internal/storage"
)

func TestWriteErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: amount is required", service.ErrValidation), http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrAccountBlocked, http.StatusForbidden},
		{fmt.Errorf("get project: %w", storage.ErrNotFound), http.StatusNotFound},
		{storage.ErrAlreadyExists, http.StatusConflict},
		{service.ErrInvalidState, http.StatusConflict},
		{service.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{service.ErrProjectUnavailable, http.StatusUnprocessableEntity},
		{service.ErrEmailDelivery, http.StatusBadGateway},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, zap.NewNop(), tc.err)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	rec := httptest.NewRecorder()
	writeError(rec, zap.New(core), errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), "internal server error")
	require.Equal(t, 1, logs.Len())
}

func TestDecode(t *testing.T) {
	var dst struct {
		Amount string `json:"amount"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"10","extra":1}`))
	assert.False(t, decode(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.True(t, decode(rec, req, &dst), "empty body is allowed")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"12.50"}`))
	require.True(t, decode(rec, req, &dst))
	assert.Equal(t, "12.50", dst.Amount)
}
