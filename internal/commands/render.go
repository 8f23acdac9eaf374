package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"tracker/internal/core"
	"tracker/internal/ledger"
)

func renderLedger(w io.Writer, currency string, snap ledger.Snapshot) error {
	if len(snap.Transactions) == 0 {
		fmt.Fprint(w, pterm.Info.Sprintln("No transactions yet"))
	} else {
		data := pterm.TableData{{"ID", "Description", "Type", "Amount"}}
		for _, tx := range snap.Transactions {
			amount := core.FormatEntry(currency, tx)
			if tx.Type == core.Income {
				amount = pterm.Green(amount)
			} else {
				amount = pterm.Red(amount)
			}
			data = append(data, []string{tx.ID, tx.Description, tx.Type.String(), amount})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return fmt.Errorf("render transactions: %w", err)
		}
		fmt.Fprintln(w, table)
	}
	return renderTotals(w, currency, snap)
}

func renderTotals(w io.Writer, currency string, snap ledger.Snapshot) error {
	balance := core.FormatMoney(currency, snap.Totals.Balance)
	if snap.Totals.Balance.IsNegative() {
		balance = pterm.Red(balance)
	} else {
		balance = pterm.Green(balance)
	}
	table, err := pterm.DefaultTable.WithData(pterm.TableData{
		{"Total Balance", balance},
		{"Income", core.FormatMoney(currency, snap.Totals.Income)},
		{"Expenses", core.FormatMoney(currency, snap.Totals.Expenses)},
	}).Srender()
	if err != nil {
		return fmt.Errorf("render totals: %w", err)
	}
	fmt.Fprintln(w, table)
	if snap.Unsaved {
		fmt.Fprint(w, pterm.Warning.Sprintln("The ledger could not be saved; this change is not on disk"))
	}
	return nil
}
