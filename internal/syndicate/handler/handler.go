package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"launder/internal/syndicate/models"
	"launder/pkg/platform/httputil"
	"launder/pkg/platform/invoke"
	"launder/pkg/requestcontext"
)

const (
	ProfileEntrypoint = "profile"
	LaunderEntrypoint = "launder"
)

// Service defines the agent operations exposed as entrypoints.
type Service interface {
	Profile() models.Profile
	TakeTurn(ctx context.Context, abstract string) (*models.TurnResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the syndicate entrypoints with the router.
func (h *Handler) Register(r chi.Router) {
	r.Post(invoke.EntrypointPath(ProfileEntrypoint), h.HandleProfile)
	r.Post(invoke.EntrypointPath(LaunderEntrypoint), h.HandleLaunder)
}

// HandleProfile returns wallet identities and the busted flag. The input
// envelope is accepted but not required.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, invoke.Response[models.Profile]{Output: h.service.Profile()})
}

func (h *Handler) HandleLaunder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[invoke.Request[models.LaunderRequest]](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.TakeTurn(ctx, req.Input.Abstract)
	if err != nil {
		h.logger.ErrorContext(ctx, "turn failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoke.Response[models.TurnResult]{Output: *result})
}
