package http

import (
	"tracker/internal/core"
	"tracker/internal/ledger"
)

type rowView struct {
	ID          string
	Description string
	Amount      string
	Income      bool
}

type pageView struct {
	Balance         string
	BalanceNegative bool
	Income          string
	Expenses        string
	Rows            []rowView
	Unsaved         bool
}

func (s *Server) pageData(snap ledger.Snapshot) pageView {
	v := pageView{
		Balance:         core.FormatMoney(s.currency, snap.Totals.Balance),
		BalanceNegative: snap.Totals.Balance.IsNegative(),
		Income:          core.FormatMoney(s.currency, snap.Totals.Income),
		Expenses:        core.FormatMoney(s.currency, snap.Totals.Expenses),
		Unsaved:         snap.Unsaved,
		Rows:            make([]rowView, 0, len(snap.Transactions)),
	}
	for _, tx := range snap.Transactions {
		v.Rows = append(v.Rows, rowView{
			ID:          tx.ID,
			Description: tx.Description,
			Amount:      core.FormatEntry(s.currency, tx),
			Income:      tx.Type == core.Income,
		})
	}
	return v
}

// JSON shapes for /api/transactions. Amounts are decimal strings.
type transactionJSON struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
}

type totalsJSON struct {
	Balance  string `json:"balance"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

type snapshotJSON struct {
	Transactions []transactionJSON `json:"transactions"`
	Totals       totalsJSON        `json:"totals"`
	Unsaved      bool              `json:"unsaved"`
}

func newTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      tx.Amount.String(),
		Type:        tx.Type.String(),
	}
}

func newTotalsJSON(t core.Totals) totalsJSON {
	return totalsJSON{
		Balance:  t.Balance.StringFixed(2),
		Income:   t.Income.StringFixed(2),
		Expenses: t.Expenses.StringFixed(2),
	}
}

func newSnapshotJSON(snap ledger.Snapshot) snapshotJSON {
	out := snapshotJSON{
		Transactions: make([]transactionJSON, 0, len(snap.Transactions)),
		Totals:       newTotalsJSON(snap.Totals),
		Unsaved:      snap.Unsaved,
	}
	for _, tx := range snap.Transactions {
		out.Transactions = append(out.Transactions, newTransactionJSON(tx))
	}
	return out
}
