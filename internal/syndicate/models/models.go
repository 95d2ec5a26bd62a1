package models

import (
	"strings"

	"github.com/google/uuid"

	"launder/internal/game"
	dErrors "launder/pkg/domain-errors"
)

// Profile is the output of the profile entrypoint.
type Profile struct {
	BossName           string    `json:"boss_name"`
	SyndicateName      string    `json:"syndicate_name"`
	DirtyWalletName    string    `json:"dirty_wallet_name"`
	CleanWalletName    string    `json:"clean_wallet_name"`
	DirtyWalletAddress uuid.UUID `json:"dirty_wallet_address"`
	CleanWalletAddress uuid.UUID `json:"clean_wallet_address"`
	Busted             bool      `json:"busted"`
}

type ProfileRequest struct{}

// LaunderRequest is the input of the launder entrypoint.
type LaunderRequest struct {
	Abstract string `json:"abstract"`
}

func (r *LaunderRequest) Normalize() {
	r.Abstract = strings.TrimSpace(r.Abstract)
}

func (r *LaunderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Abstract == "" {
		return dErrors.New(dErrors.CodeValidation, "abstract is required")
	}
	return nil
}

// TurnResult is the outcome of a turn plus the balances observed after it.
type TurnResult struct {
	Strategy     game.Strategy `json:"strategy"`
	AmountClean  int64         `json:"amount_clean"`
	AmountLost   int64         `json:"amount_lost"`
	DirtyBalance int64         `json:"dirty_balance"`
	CleanBalance int64         `json:"clean_balance"`
	Busted       bool          `json:"busted"`
	Success      bool          `json:"success"`
}

// Outcome drops the balances.
func (t TurnResult) Outcome() game.LaunderOutcome {
	return game.LaunderOutcome{
		Strategy:    t.Strategy,
		AmountClean: t.AmountClean,
		AmountLost:  t.AmountLost,
		Busted:      t.Busted,
		Success:     t.Success,
	}
}
