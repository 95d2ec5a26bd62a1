package models

import (
	"strings"

	"github.com/google/uuid"

	dErrors "launder/pkg/domain-errors"
)

// AccountResponse is returned by PUT /accounts/{name}.
type AccountResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BalanceResponse is returned by GET /accounts/{id}/balance.
type BalanceResponse struct {
	Account       uuid.UUID `json:"account"`
	Name          string    `json:"name"`
	Balance       int64     `json:"balance"`
	Formatted     string    `json:"formatted"`
	FormattedCash string    `json:"formatted_cash"`
}

// NewBalanceResponse fills the display fields from a.
func NewBalanceResponse(a *Account) BalanceResponse {
	return BalanceResponse{
		Account:       a.ID,
		Name:          a.Name,
		Balance:       a.Balance,
		Formatted:     FormatUnits(a.Balance),
		FormattedCash: FormatCash(a.Balance),
	}
}

// TransferRequest is the body of POST /transfers.
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

func (r *TransferRequest) Normalize() {
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := ValidateAccountName(r.From); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid from account")
	}
	if err := ValidateAccountName(r.To); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid to account")
	}
	if r.From == r.To {
		return dErrors.New(dErrors.CodeValidation, "from and to must differ")
	}
	if r.Amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	return nil
}

// MintRequest is the body of POST /accounts/{name}/mint.
type MintRequest struct {
	Amount int64 `json:"amount"`
}

func (r *MintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}
