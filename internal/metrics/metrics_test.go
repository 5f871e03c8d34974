package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/projects/{id}", "418"))
	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/projects/{id}", "418"))
	assert.Equal(t, 3.0, after-before)
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(yieldInvestments.WithLabelValues("failed"))
	RecordYieldRun(4, 1, false)
	assert.Equal(t, 1.0, testutil.ToFloat64(yieldInvestments.WithLabelValues("failed"))-before)

	RecordEmail("", true)
	assert.GreaterOrEqual(t, testutil.ToFloat64(emailsSent.WithLabelValues("unknown", "true")), 1.0)
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordRateLimited("login")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "invest_http_rate_limited_total")
}
