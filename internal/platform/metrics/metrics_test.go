package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry(), "ledger")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/accounts/{id}/balance", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts/abc/balance", nil))
	}

	got := testutil.ToFloat64(m.Requests.WithLabelValues("/accounts/{id}/balance", http.MethodGet, "404"))
	assert.Equal(t, float64(2), got)
}
