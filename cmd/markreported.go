package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/job"
	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/store"
)

const markJobKey = "mark-clean-reported"

var markResume bool

var markReportedCmd = &cobra.Command{
	Use:   "markreported",
	Short: "Mark Clean rows as reported across Master, the ledger and the Roster",
	Long:  "Processes the Clean table in chunks within the configured wall-clock budget. A run that hits the budget persists its offset; rerun with --resume to continue.",
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

		runner := job.NewRunner(st, cfg.Batch.Limit, time.Duration(cfg.Batch.BudgetSecs)*time.Second)
		if !markResume {
			if err := runner.Reset(ctx, markJobKey); err != nil {
				return err
			}
		}

		var validated []model.RosterEntry
		marked := 0
		step := func(offset, limit int) (int, bool, error) {
			res, err := eng.MarkCleanAsReported(offset, limit)
			if err != nil {
				return 0, false, err
			}
			// Persist the workbook before the offset is saved so a
			// resume never replays unsaved chunks.
			if err := wb.Save(); err != nil {
				return 0, false, err
			}
			marked += res.Processed
			validated = append(validated, res.Validated...)
			return res.Scanned, res.Done, nil
		}

		return recordRun(ctx, st, "markreported", func() (store.RunSummary, error) {
			out, err := runner.Run(ctx, markJobKey, step)
			if err != nil {
				return store.RunSummary{}, err
			}
			notifyValidated(ctx, st, validated)
			if !out.Done {
				zap.L().Info("mark-reported paused, rerun with --resume",
					zap.Int("offset", out.Offset), zap.Int("marked", marked))
				return store.RunSummary{Processed: out.Processed, Updated: marked, Note: "paused at budget"}, nil
			}
			zap.L().Info("mark-reported complete",
				zap.Int("scanned", out.Processed), zap.Int("marked", marked),
				zap.Int("validated", len(validated)))
			return store.RunSummary{Processed: out.Processed, Updated: marked}, nil
		})
	},
}

func init() {
	markReportedCmd.Flags().BoolVar(&markResume, "resume", false, "resume from the persisted offset instead of starting over")
	rootCmd.AddCommand(markReportedCmd)
}
