package main

import (
	"github.com/spf13/cobra"

	"github.com/irscelearn/ce-reporter/internal/store"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Maintenance operations on the reported-hours ledger",
}

var ledgerDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Compact the ledger to the latest entry per PTIN and program",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		eng, wb, err := openEngine()
		if err != nil {
			return err
		}

		return recordRun(ctx, st, "ledger-dedupe", func() (store.RunSummary, error) {
			kept, removed, err := eng.DedupeLedger()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			return store.RunSummary{Processed: kept + removed, Updated: removed}, nil
		})
	},
}

var ledgerBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Repair ledger identity fields from the Roster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		eng, wb, err := openEngine()
		if err != nil {
			return err
		}

		return recordRun(ctx, st, "ledger-backfill", func() (store.RunSummary, error) {
			updated, err := eng.BackfillLedgerFromRoster()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			return store.RunSummary{Updated: updated}, nil
		})
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerDedupeCmd)
	ledgerCmd.AddCommand(ledgerBackfillCmd)
	rootCmd.AddCommand(ledgerCmd)
}
