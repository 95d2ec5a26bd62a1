package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"launder/pkg/requestcontext"
	"launder/pkg/testutil"
)

func TestNewRouter_Health(t *testing.T) {
	r := NewRouter(nil)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health"))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := testutil.UnmarshalResponse[HealthResponse](t, rr)
	assert.True(t, body.OK)
}

func TestRequestContext_PropagatesRequestID(t *testing.T) {
	r := NewRouter(nil)
	var seen string
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := testutil.NewRequest(t, http.MethodGet, "/ping")
	req.Header.Set("X-Request-Id", "req-42")
	rr := testutil.DoRequest(r, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "req-42", seen)
}
