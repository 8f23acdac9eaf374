package core

import "github.com/shopspring/decimal"

// Totals holds the aggregates derived from a ledger.
type Totals struct {
	Balance  decimal.Decimal
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// Summarize computes the totals of txs in a single pass.
// Balance is always Income minus Expenses.
func Summarize(txs []Transaction) Totals {
	income := decimal.Zero
	expenses := decimal.Zero
	balance := decimal.Zero
	for _, tx := range txs {
		balance = balance.Add(tx.Signed())
		switch tx.Type {
		case Income:
			income = income.Add(tx.Amount)
		case Expense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	return Totals{
		Balance:  balance,
		Income:   income,
		Expenses: expenses,
	}
}
