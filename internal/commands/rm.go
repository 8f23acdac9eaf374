package commands

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"tracker/internal/core"
)

var errNeedsConfirmation = errors.New("refusing to remove without confirmation, pass --yes")

func newRmCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a transaction",
		Long: `Remove a transaction by id. Use "tracker ls" to see the ids.

Removing an id that is not in the ledger is not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			out := cmd.OutOrStdout()

			ctx := cmd.Context()
			s, err := a.openLedger(ctx, 1)
			if err != nil {
				return err
			}
			defer s.Close()

			tx, found := findTransaction(s.store.List(), id)
			if !found {
				fmt.Fprint(out, pterm.Info.Sprintfln("No transaction with id %s, nothing to remove", id))
				return renderTotals(out, a.cfg.CurrencySymbol, s.store.Snapshot())
			}

			if !yes {
				if !a.prompter.Interactive() {
					return errNeedsConfirmation
				}
				ok, err := a.prompter.Confirm(fmt.Sprintf("Remove %q (%s)?",
					tx.Description, core.FormatEntry(a.cfg.CurrencySymbol, tx)))
				if err != nil {
					return fmt.Errorf("prompt: %w", err)
				}
				if !ok {
					fmt.Fprint(out, pterm.Info.Sprintln("Nothing removed"))
					return nil
				}
			}

			snap, removed := s.store.Remove(ctx, id)
			if removed {
				fmt.Fprint(out, pterm.Success.Sprintfln("Removed %s", tx.Description))
			} else {
				fmt.Fprint(out, pterm.Info.Sprintfln("Transaction %s was already removed", id))
			}
			if err := renderLedger(out, a.cfg.CurrencySymbol, snap); err != nil {
				return err
			}
			if removed && snap.Unsaved {
				return errNotSaved
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func findTransaction(txs []core.Transaction, id string) (core.Transaction, bool) {
	for _, tx := range txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}
