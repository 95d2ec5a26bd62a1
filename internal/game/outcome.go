package game

// LaunderOutcome is the result of one syndicate turn in one round.
// It is built once and never modified afterwards.
type LaunderOutcome struct {
	Strategy    Strategy `json:"strategy"`
	AmountClean int64    `json:"amount_clean"`
	AmountLost  int64    `json:"amount_lost"`
	Busted      bool     `json:"busted"`
	Success     bool     `json:"success"`
}

// FailedOutcome is reported when the turn could not be completed.
func FailedOutcome(s Strategy) LaunderOutcome {
	return LaunderOutcome{Strategy: s}
}

// TaxSplit computes the safe-harbor split: lost is floored.
func TaxSplit(amount, taxRate int64) (clean, lost int64) {
	lost = amount * taxRate / 100
	return amount - lost, lost
}

// WithinThreshold reports whether amount still fits the round. Landing
// exactly on the threshold is allowed.
func WithinThreshold(runningTotal, amount, threshold int64) bool {
	return runningTotal+amount <= threshold
}

// Clear settles a profile. Taxed profiles split their amount and never touch
// the round total; untaxed ones are cleaned in full when the round accepted
// them and seized in full otherwise.
func Clear(p Profile, accepted bool) LaunderOutcome {
	out := LaunderOutcome{Strategy: p.Strategy}
	switch {
	case p.Taxed():
		out.AmountClean, out.AmountLost = TaxSplit(p.Amount, p.TaxRate)
	case accepted:
		out.AmountClean = p.Amount
	default:
		out.AmountLost = p.Amount
		out.Busted = true
	}
	return out
}
