// Package game holds the fixed rules of the laundering game: the strategy
// table, the outcome record and the constants every process agrees on.
package game

import "fmt"

const (
	DefaultDays              = 3
	DefaultSyndicateCount    = 5
	DefaultStartingDirtyCash = int64(100_000)
	DefaultThreshold         = int64(45_000)
	DefaultSyndicateBasePort = 3101

	FundedAccountName    = "FundedAccount"
	AuthorityAccountName = "AuthorityAccount"
)

// DirtyAccountName and CleanAccountName derive per-syndicate ledger account names.
func DirtyAccountName(syndicate string) string {
	return fmt.Sprintf("%s-dirty", syndicate)
}

func CleanAccountName(syndicate string) string {
	return fmt.Sprintf("%s-clean", syndicate)
}

// SyndicateName is the conventional name of the i-th syndicate, starting at 1.
func SyndicateName(i int) string {
	return fmt.Sprintf("Syndicate%d", i)
}
