// Package narrator turns the outcomes of a round into the public abstract
// every syndicate reads before its next turn. Abstracts are qualitative:
// they never carry the running total or any individual amount.
package narrator

import (
	"context"
	"fmt"
	"strings"

	"launder/internal/game"
	"launder/internal/laundromat/models"
)

const (
	OpeningAbstract = "A new day dawns over the city. The streets are quiet and nobody has moved any money yet."
	QuietAbstract   = "Everything is calm, no activity during the past day."
)

// Scripted picks a heat level from the outcomes. It is deterministic.
type Scripted struct{}

func (Scripted) Narrate(_ context.Context, day int, records []models.Record) (string, error) {
	if len(records) == 0 {
		if day <= 1 {
			return OpeningAbstract, nil
		}
		return QuietAbstract, nil
	}

	var busted []string
	var taxed, risky, aggressive int
	for _, r := range records {
		switch {
		case r.Busted:
			busted = append(busted, r.Syndicate)
		case r.Taxed:
			taxed++
		default:
			risky++
			if r.Strategy == game.StrategyAggressive {
				aggressive++
			}
		}
	}

	var b strings.Builder
	switch {
	case len(busted) > 0:
		fmt.Fprintf(&b, "The police is on high alert. %s caught laundering and shut down for good.", describeBusted(busted))
	case aggressive > 0 || risky >= 3:
		b.WriteString("Word on the street is that a lot of dirty money changed hands. The authorities are getting suspicious.")
	default:
		b.WriteString("Business was slow. The authorities do not seem to be paying much attention.")
	}
	if taxed > 0 {
		b.WriteString(" Some bosses chose to pay their taxes and stay out of trouble.")
	}
	return b.String(), nil
}

func describeBusted(names []string) string {
	if len(names) == 1 {
		return names[0] + " was"
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1] + " were"
}
