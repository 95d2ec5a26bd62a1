package models

import (
	"strings"

	"launder/internal/game"
	"launder/internal/ledger/models"
	dErrors "launder/pkg/domain-errors"
)

// LaunderRequest is the input of every laundering entrypoint.
type LaunderRequest struct {
	BossName         string `json:"boss_name"`
	Name             string `json:"name"`
	CleanAccountName string `json:"clean_account_name"`
}

func (r *LaunderRequest) Normalize() {
	r.BossName = strings.TrimSpace(r.BossName)
	r.Name = strings.TrimSpace(r.Name)
	r.CleanAccountName = strings.TrimSpace(r.CleanAccountName)
}

func (r *LaunderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.BossName == "" {
		return dErrors.New(dErrors.CodeValidation, "boss_name is required")
	}
	if len(r.BossName) > 128 {
		return dErrors.New(dErrors.CodeValidation, "boss_name must be at most 128 characters")
	}
	if err := models.ValidateAccountName(r.Name); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid syndicate name")
	}
	if err := models.ValidateAccountName(r.CleanAccountName); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid clean account name")
	}
	return nil
}

// AbstractRequest is the (empty) input of the abstract entrypoint.
type AbstractRequest struct{}

type AbstractResponse struct {
	Abstract string `json:"abstract"`
}

// Record is what the clearing engine remembers about one cleared request
// until the next narration. It carries no amounts.
type Record struct {
	Syndicate string        `json:"syndicate"`
	BossName  string        `json:"boss_name"`
	Strategy  game.Strategy `json:"strategy"`
	Busted    bool          `json:"busted"`
	Taxed     bool          `json:"taxed"`
}
