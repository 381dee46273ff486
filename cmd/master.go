package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/store"
)

var masterCmd = &cobra.Command{
	Use:   "master",
	Short: "Maintenance operations on the Master table",
}

var masterDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Collapse Master duplicates by program and email",
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

		return recordRun(ctx, st, "master-dedupe", func() (store.RunSummary, error) {
			kept, removed, err := eng.DedupeMaster()
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

var masterSyncLedgerCmd = &cobra.Command{
	Use:   "sync-ledger",
	Short: "Restore Master reported flags from the reported-hours ledger",
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

		return recordRun(ctx, st, "master-sync-ledger", func() (store.RunSummary, error) {
			updated, err := eng.SyncMasterFromLedger()
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

var masterIngestIssuesCmd = &cobra.Command{
	Use:   "ingest-issues",
	Short: "Apply the system issue feed to Master and Clean",
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

		return recordRun(ctx, st, "master-ingest-issues", func() (store.RunSummary, error) {
			applied, err := eng.IngestSystemIssues()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			zap.L().Info("issue feed applied", zap.Int("applied", applied))
			return store.RunSummary{Updated: applied}, nil
		})
	},
}

func init() {
	masterCmd.AddCommand(masterDedupeCmd)
	masterCmd.AddCommand(masterSyncLedgerCmd)
	masterCmd.AddCommand(masterIngestIssuesCmd)
	rootCmd.AddCommand(masterCmd)
}
