package core

import "time"

// EventKind names a ledger change.
type EventKind string

const (
	EventTransactionAdded   EventKind = "transaction.added"
	EventTransactionRemoved EventKind = "transaction.removed"
)

// Event describes a completed ledger mutation and the totals after it.
// Transaction is the zero value for removals.
type Event struct {
	Kind          EventKind
	TransactionID string
	Transaction   Transaction
	Totals        Totals
	At            time.Time
}
