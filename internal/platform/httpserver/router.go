package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"launder/internal/platform/metrics"
	"launder/pkg/platform/httputil"
	"launder/pkg/requestcontext"
)

// HealthResponse is the liveness payload polled by the sequencer.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// NewRouter returns a chi router carrying the shared middleware chain and the
// /health and /metrics endpoints. m may be nil.
func NewRouter(m *metrics.HTTP) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestContext)
	r.Use(chimw.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, HealthResponse{OK: true})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// RequestContext copies the chi request id and the request start time into
// the HTTP-independent request context.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithRequestID(ctx, chimw.GetReqID(ctx))
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
