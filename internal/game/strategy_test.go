package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "launder/pkg/domain-errors"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Strategy
	}{
		{"bare value", "aggressive", StrategyAggressive},
		{"field format", "Strategy: moderate", StrategyModerate},
		{"mixed case with padding", "  Strategy:   CONSERVATIVE \n", StrategyConservative},
		{"legacy taxes name", "pay_taxes", StrategyPlayNice},
		{"spaced play nice", "Play Nice", StrategyPlayNice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("prose is rejected", func(t *testing.T) {
		_, err := ParseStrategy("I think we should lie low today")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownStrategy))
	})

	t.Run("empty is rejected", func(t *testing.T) {
		_, err := ParseStrategy("Strategy:")
		assert.Error(t, err)
	})
}

func TestProfiles(t *testing.T) {
	t.Run("every strategy has exactly one profile", func(t *testing.T) {
		seen := map[string]bool{}
		for _, s := range Strategies() {
			p, err := ProfileFor(s)
			require.NoError(t, err)
			assert.Equal(t, s, p.Strategy)
			assert.False(t, seen[p.Endpoint], "endpoint %s reused", p.Endpoint)
			seen[p.Endpoint] = true

			byEndpoint, err := ProfileForEndpoint(p.Endpoint)
			require.NoError(t, err)
			assert.Equal(t, p, byEndpoint)
		}
	})

	t.Run("only play nice is taxed", func(t *testing.T) {
		for _, s := range Strategies() {
			p, _ := ProfileFor(s)
			assert.Equal(t, s == StrategyPlayNice, p.Taxed())
		}
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := ProfileFor(Strategy("smurfing"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownStrategy))
	})
}

func TestTaxSplit(t *testing.T) {
	clean, lost := TaxSplit(20_000, 40)
	assert.Equal(t, int64(12_000), clean)
	assert.Equal(t, int64(8_000), lost)

	// floor on the lost side
	clean, lost = TaxSplit(999, 40)
	assert.Equal(t, int64(399), lost)
	assert.Equal(t, int64(600), clean)
}
