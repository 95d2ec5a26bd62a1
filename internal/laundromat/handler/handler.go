package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"launder/internal/game"
	"launder/internal/laundromat/models"
	"launder/pkg/platform/httputil"
	"launder/pkg/platform/invoke"
	"launder/pkg/requestcontext"
)

const AbstractEntrypoint = "abstract"

// Service defines the clearing operations exposed as entrypoints.
type Service interface {
	Clear(ctx context.Context, strategy game.Strategy, req models.LaunderRequest) (*game.LaunderOutcome, error)
	Narrate(ctx context.Context) (string, error)
}

// Paywall charges for an entrypoint before it runs.
type Paywall interface {
	Require(resource string, price int64, description string) func(http.Handler) http.Handler
}

type Handler struct {
	service Service
	paywall Paywall
	logger  *slog.Logger
}

// New builds the handler. A nil paywall serves laundering for free.
func New(service Service, paywall Paywall, logger *slog.Logger) *Handler {
	return &Handler{service: service, paywall: paywall, logger: logger}
}

// Register mounts one paid entrypoint per strategy plus the free abstract.
func (h *Handler) Register(r chi.Router) {
	for _, strategy := range game.Strategies() {
		profile, _ := game.ProfileFor(strategy)
		path := invoke.EntrypointPath(profile.Endpoint)
		if h.paywall != nil {
			r.With(h.paywall.Require(path, profile.Amount, profile.Description)).Post(path, h.launder(strategy))
			continue
		}
		r.Post(path, h.launder(strategy))
	}
	r.Post(invoke.EntrypointPath(AbstractEntrypoint), h.HandleAbstract)
}

func (h *Handler) launder(strategy game.Strategy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		req, ok := httputil.DecodeAndPrepare[invoke.Request[models.LaunderRequest]](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}

		if p, paid := requestcontext.Payment(ctx); paid {
			h.logger.InfoContext(ctx, "laundering paid",
				"request_id", requestID,
				"syndicate", req.Input.Name,
				"payer", p.Payer,
				"amount", p.Amount,
			)
		}

		outcome, err := h.service.Clear(ctx, strategy, req.Input)
		if err != nil {
			h.logger.ErrorContext(ctx, "laundering failed",
				"request_id", requestID,
				"syndicate", req.Input.Name,
				"strategy", strategy,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, invoke.Response[game.LaunderOutcome]{Output: *outcome})
	}
}

// HandleAbstract handles the abstract entrypoint; it closes the round.
func (h *Handler) HandleAbstract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	abstract, err := h.service.Narrate(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "narration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoke.Response[models.AbstractResponse]{Output: models.AbstractResponse{Abstract: abstract}})
}
