package testutil

import (
	"net/http"
	"time"

	"launder/pkg/requestcontext"
)

// WithPayment marks the request as already paid by payer.
// This simulates what the payment middleware does after settlement.
func WithPayment(req *http.Request, payer string, amount int64) *http.Request {
	ctx := requestcontext.WithPayment(req.Context(), requestcontext.SettledPayment{
		TokenID: "test-token",
		Payer:   payer,
		Amount:  amount,
	})
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
