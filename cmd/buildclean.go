package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/store"
)

var buildcleanCmd = &cobra.Command{
	Use:   "buildclean",
	Short: "Rebuild the Clean upload staging table from Master",
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

		return recordRun(ctx, st, "buildclean", func() (store.RunSummary, error) {
			staged, err := eng.BuildCleanUpload()
			if err != nil {
				return store.RunSummary{}, err
			}
			if err := wb.Save(); err != nil {
				return store.RunSummary{}, err
			}
			zap.L().Info("clean table rebuilt", zap.Int("staged", staged))
			return store.RunSummary{Processed: staged, Updated: staged}, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(buildcleanCmd)
}
