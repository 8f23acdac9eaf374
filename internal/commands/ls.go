package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tracker/internal/ledger"
	"tracker/internal/persist"
)

func newLsCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List transactions",
		Long:    "List every transaction in the order it was added, followed by the totals.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot(cmd)
			if err != nil {
				return err
			}
			if asJSON {
				return writeSnapshotJSON(cmd, snap)
			}
			return renderLedger(cmd.OutOrStdout(), a.cfg.CurrencySymbol, snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the ledger in its stored JSON form")
	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show balance, income and expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot(cmd)
			if err != nil {
				return err
			}
			return renderTotals(cmd.OutOrStdout(), a.cfg.CurrencySymbol, snap)
		},
	}
}

func (a *app) snapshot(cmd *cobra.Command) (ledger.Snapshot, error) {
	s, err := a.openLedger(cmd.Context(), 1)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	defer s.Close()
	return s.store.Snapshot(), nil
}

func writeSnapshotJSON(cmd *cobra.Command, snap ledger.Snapshot) error {
	data, err := persist.Encode(snap.Transactions)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(cmd.OutOrStdout())
	return err
}
