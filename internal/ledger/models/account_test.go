package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "launder/pkg/domain-errors"
)

func TestNewAccount(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("trims name", func(t *testing.T) {
		a, err := NewAccount(uuid.New(), "  Syndicate1-dirty ", now)
		require.NoError(t, err)
		assert.Equal(t, "Syndicate1-dirty", a.Name)
		assert.Zero(t, a.Balance)
	})

	t.Run("rejects empty and oversized names", func(t *testing.T) {
		_, err := NewAccount(uuid.New(), "   ", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = NewAccount(uuid.New(), strings.Repeat("x", MaxAccountNameLength+1), now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil id", func(t *testing.T) {
		_, err := NewAccount(uuid.Nil, "FundedAccount", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0.025000", FormatUnits(25_000))
	assert.Equal(t, "$100,000", FormatCash(100_000))
	assert.Equal(t, "$999", FormatCash(999))
	assert.Equal(t, "$1,000,000", FormatCash(1_000_000))
	assert.Equal(t, "$0", FormatCash(0))
}

func TestTransferRequestValidate(t *testing.T) {
	req := &TransferRequest{From: " FundedAccount ", To: "Syndicate1-clean", Amount: 12_000}
	req.Normalize()
	require.NoError(t, req.Validate())

	same := &TransferRequest{From: "a", To: "a", Amount: 1}
	assert.Error(t, same.Validate())

	negative := &TransferRequest{From: "a", To: "b", Amount: -1}
	assert.Error(t, negative.Validate())
}
