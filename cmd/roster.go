package main

import (
	"github.com/spf13/cobra"

	"github.com/irscelearn/ce-reporter/internal/store"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Maintenance operations on the attendee Roster",
}

var rosterGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Add Roster entries for Master identities not yet on the Roster",
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

		return recordRun(ctx, st, "roster-generate", func() (store.RunSummary, error) {
			added, err := eng.GenerateRoster()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			return store.RunSummary{Updated: added}, nil
		})
	},
}

var rosterDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Collapse Roster duplicates by email-or-PTIN and re-sort",
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

		return recordRun(ctx, st, "roster-dedupe", func() (store.RunSummary, error) {
			kept, removed, err := eng.DedupeRoster()
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

var rosterBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fill blank Master PTIN and group fields from the Roster",
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

		return recordRun(ctx, st, "roster-backfill", func() (store.RunSummary, error) {
			ptins, groups, err := eng.BackfillMasterFromRoster()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			return store.RunSummary{Updated: ptins + groups}, nil
		})
	},
}

var rosterValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Flip Valid on Roster identities the ledger shows as reported",
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

		return recordRun(ctx, st, "roster-validate", func() (store.RunSummary, error) {
			flipped, err := eng.ValidateRosterFromLedger()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			notifyValidated(ctx, st, flipped)
			return store.RunSummary{Updated: len(flipped)}, nil
		})
	},
}

var rosterInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Clear Valid on Roster identities with unresolved Master issues",
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

		return recordRun(ctx, st, "roster-invalidate", func() (store.RunSummary, error) {
			flipped, err := eng.InvalidateRosterFromIssues()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			return store.RunSummary{Updated: flipped}, nil
		})
	},
}

func init() {
	rosterCmd.AddCommand(rosterGenerateCmd)
	rosterCmd.AddCommand(rosterDedupeCmd)
	rosterCmd.AddCommand(rosterBackfillCmd)
	rosterCmd.AddCommand(rosterValidateCmd)
	rosterCmd.AddCommand(rosterInvalidateCmd)
	rootCmd.AddCommand(rosterCmd)
}
