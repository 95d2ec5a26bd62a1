package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "launder/pkg/domain-errors"
)

// MaxAccountNameLength bounds account names accepted by the ledger.
const MaxAccountNameLength = 128

// baseUnitExponent: balances are kept in millionths of a display unit.
const baseUnitExponent = -6

// Account is a named custodial balance. ID is the stable identity returned
// to callers; Name is the idempotency key for provisioning.
type Account struct {
	ID        uuid.UUID
	Name      string
	Balance   int64
	CreatedAt time.Time
}

// NewAccount validates invariants for a fresh, empty account.
func NewAccount(id uuid.UUID, name string, now time.Time) (*Account, error) {
	name = strings.TrimSpace(name)
	if err := ValidateAccountName(name); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account id is required")
	}
	return &Account{ID: id, Name: name, CreatedAt: now}, nil
}

// ValidateAccountName rejects names the ledger cannot key on.
func ValidateAccountName(name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "account name is required")
	}
	if len(name) > MaxAccountNameLength {
		return dErrors.New(dErrors.CodeValidation, "account name is too long")
	}
	if strings.ContainsAny(name, "/?#") {
		return dErrors.New(dErrors.CodeValidation, "account name contains reserved characters")
	}
	return nil
}

// FormatUnits renders base units as a 6-decimal currency amount, e.g. "0.025000".
func FormatUnits(units int64) string {
	return decimal.New(units, baseUnitExponent).StringFixed(6)
}

// FormatCash renders base units as whole cash with thousands separators, e.g. "$25,000".
func FormatCash(units int64) string {
	s := decimal.NewFromInt(units).Abs().StringFixed(0)
	var b strings.Builder
	if units < 0 {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
