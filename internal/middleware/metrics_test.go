package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddlewareLabelsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/api/certificates/{certificateId}", func(w http.ResponseWriter, r *http.Request) {})

	for _, id := range []string{"CERT-2025-AAAA", "CERT-2025-BBBB"} {
		req := httptest.NewRequest(http.MethodGet, "/api/certificates/"+id, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	pattern := "/api/certificates/{certificateId}"
	assert.Equal(t, 2.0, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, pattern, "200")))
	// raw paths must not become label values
	assert.Zero(t, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/certificates/CERT-2025-AAAA", "200")))
}
