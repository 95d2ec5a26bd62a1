package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/httputil"
	"launder/pkg/platform/payment"
	"launder/pkg/requestcontext"
)

// Settler moves the paid amount from payer to payee.
type Settler interface {
	Transfer(ctx context.Context, from, to string, amount int64) error
}

// Paywall guards paid entrypoints: it answers 402 with requirements until a
// valid, unused payment token arrives, then settles before calling the handler.
type Paywall struct {
	verifier *payment.Verifier
	guard    payment.ReplayGuard
	settler  Settler
	network  string
	payTo    string
	tokenTTL time.Duration
	logger   *slog.Logger
}

// PaywallConfig carries the recognized payment options.
type PaywallConfig struct {
	Network  string
	PayTo    string
	TokenTTL time.Duration
}

func NewPaywall(cfg PaywallConfig, verifier *payment.Verifier, guard payment.ReplayGuard, settler Settler, logger *slog.Logger) (*Paywall, error) {
	if verifier == nil || guard == nil || settler == nil {
		return nil, fmt.Errorf("verifier, replay guard and settler are required")
	}
	if cfg.PayTo == "" || cfg.Network == "" {
		return nil, fmt.Errorf("pay-to address and network are required")
	}
	return &Paywall{
		verifier: verifier,
		guard:    guard,
		settler:  settler,
		network:  cfg.Network,
		payTo:    cfg.PayTo,
		tokenTTL: cfg.TokenTTL,
		logger:   logger,
	}, nil
}

// Requirement describes what Require(resource, price) will accept.
func (p *Paywall) Requirement(resource string, price int64, description string) payment.Requirement {
	return payment.Requirement{
		Scheme:            payment.SchemeExact,
		Network:           p.network,
		PayTo:             p.payTo,
		MaxAmountRequired: price,
		Resource:          resource,
		Description:       description,
	}
}

// Require returns middleware charging price for resource.
func (p *Paywall) Require(resource string, price int64, description string) func(http.Handler) http.Handler {
	req := p.Requirement(resource, price, description)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token := r.Header.Get(payment.HeaderPayment)
			if token == "" {
				p.writeRequired(w, req, "X-PAYMENT header is required")
				return
			}

			claims, err := p.verifier.Verify(token, req, requestcontext.Now(ctx))
			if err != nil {
				p.logger.WarnContext(ctx, "payment rejected",
					"request_id", requestID,
					"resource", resource,
					"error", err,
				)
				p.writeRequired(w, req, err.Error())
				return
			}

			fresh, err := p.guard.MarkUsed(ctx, claims.ID, p.tokenTTL)
			if err != nil {
				p.logger.ErrorContext(ctx, "payment replay check failed",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment verification unavailable"))
				return
			}
			if !fresh {
				p.logger.WarnContext(ctx, "payment token replayed",
					"request_id", requestID,
					"payer", claims.Payer,
					"token_id", claims.ID,
				)
				p.writeRequired(w, req, "payment token already used")
				return
			}

			if err := p.settler.Transfer(ctx, claims.Payer, p.payTo, price); err != nil {
				p.logger.WarnContext(ctx, "payment settlement failed",
					"request_id", requestID,
					"payer", claims.Payer,
					"amount", price,
					"error", err,
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodePaymentFailed, "payment settlement failed"))
				return
			}

			receipt, err := payment.EncodeReceipt(payment.Receipt{
				Success: true,
				TokenID: claims.ID,
				Payer:   claims.Payer,
				PayTo:   p.payTo,
				Amount:  price,
				Network: p.network,
			})
			if err == nil {
				w.Header().Set(payment.HeaderPaymentResponse, receipt)
			}

			ctx = requestcontext.WithPayment(ctx, requestcontext.SettledPayment{
				TokenID: claims.ID,
				Payer:   claims.Payer,
				PayTo:   p.payTo,
				Amount:  price,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (p *Paywall) writeRequired(w http.ResponseWriter, req payment.Requirement, reason string) {
	httputil.WriteJSON(w, http.StatusPaymentRequired, payment.RequiredResponse{
		Version: payment.Version,
		Error:   reason,
		Accepts: []payment.Requirement{req},
	})
}
