package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"tracker/internal/core"
)

// errNotSaved makes a one-shot command fail when its change only reached
// memory, since the process exits right after.
var errNotSaved = errors.New("the ledger could not be saved, the change is lost")

func newAddCommand(a *app) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "add [description] [amount]",
		Short: "Record a transaction",
		Long: `Record an income or an expense.

Missing arguments are asked for interactively when stdin is a terminal.
The type defaults to expense.`,
		Example: `  tracker add Salary 1000 --type income
  tracker add Rent 400
  tracker add`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var description, amount string
			if len(args) > 0 {
				description = args[0]
			}
			if len(args) > 1 {
				amount = args[1]
			}

			missing := strings.TrimSpace(description) == "" || strings.TrimSpace(amount) == ""
			if missing && a.prompter.Interactive() {
				if err := a.prompter.Transaction(&description, &amount, &typ); err != nil {
					return fmt.Errorf("prompt: %w", err)
				}
			}
			if typ == "" {
				typ = string(core.Expense)
			}

			ctx := cmd.Context()
			s, err := a.openLedger(ctx, 1)
			if err != nil {
				return err
			}
			defer s.Close()

			tx, snap, err := s.store.Add(ctx, description, amount, typ)
			if err != nil {
				if core.IsValidationError(err) {
					return fmt.Errorf("transaction rejected: %w", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, pterm.Success.Sprintfln("Added %s %s (%s)",
				tx.Description, core.FormatEntry(a.cfg.CurrencySymbol, tx), tx.ID))
			if err := renderLedger(out, a.cfg.CurrencySymbol, snap); err != nil {
				return err
			}
			if snap.Unsaved {
				return errNotSaved
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "income or expense (default expense)")
	return cmd
}
