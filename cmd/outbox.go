package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/pkg/membership"
)

var outboxLimit int

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Manage queued validation webhooks",
}

var outboxFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Retry pending validation webhooks",
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

		pending, err := st.PendingNotifications(ctx, outboxLimit)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			zap.L().Info("outbox empty")
			return nil
		}

		client := newMembershipClient()
		sent, failed := 0, 0
		for _, n := range pending {
			p := membership.Payload{
				Email:     n.Email,
				FirstName: n.FirstName,
				LastName:  n.LastName,
				PTIN:      n.PTIN,
			}
			if err := client.Notify(ctx, p); err != nil {
				failed++
				if merr := st.MarkNotifyFailed(ctx, n.ID, err.Error()); merr != nil {
					zap.L().Error("mark notify failed", zap.String("id", n.ID), zap.Error(merr))
				}
				continue
			}
			sent++
			if merr := st.MarkNotified(ctx, n.ID); merr != nil {
				zap.L().Error("mark notified", zap.String("id", n.ID), zap.Error(merr))
			}
		}
		zap.L().Info("outbox flushed", zap.Int("sent", sent), zap.Int("failed", failed))
		return nil
	},
}

func init() {
	outboxFlushCmd.Flags().IntVar(&outboxLimit, "limit", 100, "max notifications to send")
	outboxCmd.AddCommand(outboxFlushCmd)
	rootCmd.AddCommand(outboxCmd)
}
