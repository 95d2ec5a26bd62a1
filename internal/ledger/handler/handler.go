package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"launder/internal/ledger/models"
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/httputil"
	"launder/pkg/requestcontext"
)

// Service defines the ledger operations exposed over HTTP.
type Service interface {
	GetOrCreateAccount(ctx context.Context, name string) (*models.Account, error)
	Account(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Transfer(ctx context.Context, from, to string, amount int64) error
	Mint(ctx context.Context, name string, amount int64) error
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/accounts/{name}", h.HandleGetOrCreate)
	r.Get("/accounts/{id}/balance", h.HandleBalance)
	r.Post("/accounts/{name}/mint", h.HandleMint)
	r.Post("/transfers", h.HandleTransfer)
}

// HandleGetOrCreate handles PUT /accounts/{name}.
func (h *Handler) HandleGetOrCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := h.service.GetOrCreateAccount(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.logger.ErrorContext(ctx, "account provisioning failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.AccountResponse{ID: account.ID, Name: account.Name})
}

// HandleBalance handles GET /accounts/{id}/balance.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id must be a uuid"))
		return
	}
	account, err := h.service.Account(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewBalanceResponse(account))
}

// HandleTransfer handles POST /transfers.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.Transfer(ctx, req.From, req.To, req.Amount); err != nil {
		h.logger.WarnContext(ctx, "transfer rejected",
			"request_id", requestID,
			"from", req.From,
			"to", req.To,
			"amount", req.Amount,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMint handles POST /accounts/{name}/mint.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.MintRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.Mint(ctx, chi.URLParam(r, "name"), req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
