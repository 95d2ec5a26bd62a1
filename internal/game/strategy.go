package game

import (
	"fmt"
	"strings"

	dErrors "launder/pkg/domain-errors"
)

// Strategy is one of the fixed laundering choices a syndicate can make.
type Strategy string

const (
	StrategyConservative Strategy = "conservative"
	StrategyModerate     Strategy = "moderate"
	StrategyAggressive   Strategy = "aggressive"
	StrategyPlayNice     Strategy = "play_nice"
)

// SafestStrategy is used whenever a decision cannot be trusted.
const SafestStrategy = StrategyPlayNice

// Profile is the immutable economics of a strategy.
type Profile struct {
	Strategy    Strategy
	Endpoint    string
	Description string
	// Amount is in base currency units.
	Amount int64
	// TaxRate is a whole percentage, 0-100.
	TaxRate int64
}

// Taxed reports whether the strategy takes the safe-harbor path.
func (p Profile) Taxed() bool {
	return p.TaxRate > 0
}

var profiles = map[Strategy]Profile{
	StrategyConservative: {
		Strategy:    StrategyConservative,
		Endpoint:    "launder_conservative",
		Description: "Launder a small amount with low risk",
		Amount:      5_000,
	},
	StrategyModerate: {
		Strategy:    StrategyModerate,
		Endpoint:    "launder_moderate",
		Description: "Launder a moderate amount with moderate risk",
		Amount:      10_000,
	},
	StrategyAggressive: {
		Strategy:    StrategyAggressive,
		Endpoint:    "launder_aggressive",
		Description: "Launder a large amount with high risk",
		Amount:      25_000,
	},
	StrategyPlayNice: {
		Strategy:    StrategyPlayNice,
		Endpoint:    "pay_taxes",
		Description: "Pay 40% taxes, no laundering required",
		Amount:      20_000,
		TaxRate:     40,
	},
}

// Strategies lists every strategy in a stable order.
func Strategies() []Strategy {
	return []Strategy{StrategyConservative, StrategyModerate, StrategyAggressive, StrategyPlayNice}
}

// ProfileFor returns the profile of s. Profiles are values, so callers
// cannot mutate the table.
func ProfileFor(s Strategy) (Profile, error) {
	p, ok := profiles[s]
	if !ok {
		return Profile{}, dErrors.New(dErrors.CodeUnknownStrategy, fmt.Sprintf("unknown strategy %q", s))
	}
	return p, nil
}

// ProfileForEndpoint resolves an entrypoint key such as "pay_taxes".
func ProfileForEndpoint(endpoint string) (Profile, error) {
	for _, s := range Strategies() {
		if profiles[s].Endpoint == endpoint {
			return profiles[s], nil
		}
	}
	return Profile{}, dErrors.New(dErrors.CodeUnknownStrategy, fmt.Sprintf("unknown laundering endpoint %q", endpoint))
}

// ParseStrategy accepts a wire name, case-insensitively, with an optional
// "Strategy:" prefix.
func ParseStrategy(raw string) (Strategy, error) {
	v := strings.TrimSpace(raw)
	if head, tail, ok := strings.Cut(v, ":"); ok && strings.EqualFold(strings.TrimSpace(head), "strategy") {
		v = tail
	}
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.Trim(v, "`\"'.*")
	v = strings.ReplaceAll(v, " ", "_")
	switch v {
	case "pay_taxes", "paytaxes", "taxes":
		v = string(StrategyPlayNice)
	}
	s := Strategy(v)
	if _, ok := profiles[s]; !ok {
		return "", dErrors.New(dErrors.CodeUnknownStrategy, fmt.Sprintf("unknown strategy %q", raw))
	}
	return s, nil
}

func (s Strategy) String() string {
	return string(s)
}
