package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/fanout"
	"github.com/irscelearn/ce-reporter/internal/sheet"
	"github.com/irscelearn/ce-reporter/internal/store"
)

var groupWorkers int

var groupSyncCmd = &cobra.Command{
	Use:   "groupsync",
	Short: "Fan Master rows out to the group destination workbooks",
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

		wb, err := sheet.OpenWorkbook(cfg.Workbook.Path)
		if err != nil {
			return err
		}
		master, err := wb.Table(cfg.Workbook.Master)
		if err != nil {
			return err
		}
		catalog, err := wb.Table(cfg.Workbook.Groups)
		if err != nil {
			return err
		}
		// The course catalog is optional; program names stay blank
		// without it.
		courses, err := wb.Table(cfg.Workbook.Courses)
		if err != nil {
			courses = nil
		}

		syncer := fanout.New(master, catalog, courses,
			fanout.WorkbookOpener(cfg.Workbook.GroupTarget),
			fanout.WithWorkers(groupWorkers),
		)

		return recordRun(ctx, st, "groupsync", func() (store.RunSummary, error) {
			res, err := syncer.SyncAll(ctx)
			if err != nil {
				return store.RunSummary{}, err
			}
			zap.L().Info("group sync finished",
				zap.Int("groups", res.Groups), zap.Int("synced", res.Synced),
				zap.Int("skipped", res.Skipped), zap.Strings("failed", res.Failed))
			return store.RunSummary{
				Processed: res.Groups,
				Updated:   res.Synced,
				Skipped:   res.Skipped,
				Failed:    len(res.Failed),
			}, nil
		})
	},
}

func init() {
	groupSyncCmd.Flags().IntVar(&groupWorkers, "workers", 4, "concurrent destination syncs")
	rootCmd.AddCommand(groupSyncCmd)
}
