package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/store"
)

var recheckCmd = &cobra.Command{
	Use:   "recheck",
	Short: "Rerun the issue classifier over every Master row",
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

		return recordRun(ctx, st, "recheck", func() (store.RunSummary, error) {
			changed, err := eng.RecheckMaster()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			zap.L().Info("recheck complete", zap.Int("changed", changed))
			return store.RunSummary{Updated: changed}, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recheckCmd)
}
