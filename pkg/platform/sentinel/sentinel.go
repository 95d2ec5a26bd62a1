// Package sentinel lists the storage-level facts that services translate into
// domain errors. Stores wrap these; they never return domain-errors directly.
package sentinel

import "errors"

var (
	// ErrNotFound means the named account (or key) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientFunds means a debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnavailable means the backing store could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
