package models

import (
	"github.com/google/uuid"

	syndicatemodels "launder/internal/syndicate/models"
)

// ActivityLog is the persisted record of a run, read by the display layer.
type ActivityLog struct {
	CurrentDay       int    `json:"currentDay"`
	AuthorityBalance int64  `json:"authority_balance"`
	Days             []*Day `json:"days"`
}

// Day holds one round: the abstract every syndicate saw and each turn's
// outcome keyed by syndicate name. Skipped (busted) syndicates have no entry.
type Day struct {
	Day        int                                   `json:"day"`
	Abstract   string                                `json:"abstract"`
	Syndicates map[string]syndicatemodels.TurnResult `json:"syndicates"`
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{Days: []*Day{}}
}

// Day returns the entry for day n, or nil.
func (l *ActivityLog) Day(n int) *Day {
	for _, d := range l.Days {
		if d.Day == n {
			return d
		}
	}
	return nil
}

// StartDay returns the entry for day n, appending an empty one if needed.
func (l *ActivityLog) StartDay(n int) *Day {
	l.CurrentDay = n
	if d := l.Day(n); d != nil {
		return d
	}
	d := &Day{Day: n, Syndicates: map[string]syndicatemodels.TurnResult{}}
	l.Days = append(l.Days, d)
	return d
}

// Outcomes counts recorded turns over all days.
func (l *ActivityLog) Outcomes() int {
	n := 0
	for _, d := range l.Days {
		n += len(d.Syndicates)
	}
	return n
}

// Last returns the most recent recorded turn of syndicate.
func (l *ActivityLog) Last(syndicate string) (syndicatemodels.TurnResult, bool) {
	for i := len(l.Days) - 1; i >= 0; i-- {
		if r, ok := l.Days[i].Syndicates[syndicate]; ok {
			return r, true
		}
	}
	return syndicatemodels.TurnResult{}, false
}

// Busted reports whether any recorded turn of syndicate ended busted.
func (l *ActivityLog) Busted(syndicate string) bool {
	for _, d := range l.Days {
		if d.Syndicates[syndicate].Busted {
			return true
		}
	}
	return false
}

// Repair fills what a hand-edited or older file may lack.
func (l *ActivityLog) Repair() {
	if l.Days == nil {
		l.Days = []*Day{}
	}
	kept := l.Days[:0]
	for _, d := range l.Days {
		if d == nil {
			continue
		}
		if d.Syndicates == nil {
			d.Syndicates = map[string]syndicatemodels.TurnResult{}
		}
		kept = append(kept, d)
	}
	l.Days = kept
}

// Balances are the final holdings of one syndicate. Err is set when a
// balance could not be read; the matching field is then zero.
type Balances struct {
	Syndicate    string    `json:"syndicate"`
	DirtyAddress uuid.UUID `json:"dirty_address"`
	CleanAddress uuid.UUID `json:"clean_address"`
	Dirty        int64     `json:"dirty"`
	Clean        int64     `json:"clean"`
	Busted       bool      `json:"busted"`
	Err          string    `json:"error,omitempty"`
}

// Report summarizes a finished run.
type Report struct {
	Syndicates   []Balances `json:"syndicates"`
	Authority    int64      `json:"authority"`
	AuthorityErr string     `json:"authority_error,omitempty"`
	Outcomes     int        `json:"outcomes"`
}
