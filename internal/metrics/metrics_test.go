package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/":                         "/",
		"/health":                   "/health",
		"/api/clients":              "/api/clients",
		"/api/clients/abc":          "/api/clients/{id}",
		"/api/clients/abc/payments": "/api/clients/{id}/payments",
		"/api/analytics/42":         "/api/analytics/{id}",
		"/clients/abc/statement":    "/clients/{id}/statement",
		"/api/demo/reset":           "/api/demo/reset",
		"/a/b/c/d/e/f":              "/a/b/c/d",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonicalPath(in), in)
	}
}

func TestInstrumentHandler(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/clients/{id}", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/clients/xyz", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/clients/{id}", "418"))
	assert.Equal(t, before+1, after)
}

func TestRecordRateRefresh(t *testing.T) {
	before := testutil.ToFloat64(rateRefreshes.WithLabelValues("error"))
	RecordRateRefresh(errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(rateRefreshes.WithLabelValues("error")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordNotice("success", true)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "client_ledger_clients_notices_total")
}
