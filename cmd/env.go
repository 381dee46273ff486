package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/engine"
	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/sheet"
	"github.com/irscelearn/ce-reporter/internal/store"
	"github.com/irscelearn/ce-reporter/pkg/membership"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "ce-reporter.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openEngine opens the reporting workbook and builds an Engine over its
// configured tabs. Callers must Save the returned workbook to persist
// any engine writes.
func openEngine() (*engine.Engine, *sheet.Workbook, error) {
	wb, err := sheet.OpenWorkbook(cfg.Workbook.Path)
	if err != nil {
		return nil, nil, err
	}
	master, err := wb.Table(cfg.Workbook.Master)
	if err != nil {
		return nil, nil, err
	}
	clean, err := wb.Table(cfg.Workbook.Clean)
	if err != nil {
		return nil, nil, err
	}
	roster, err := wb.Table(cfg.Workbook.Roster)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := wb.Table(cfg.Workbook.Ledger)
	if err != nil {
		return nil, nil, err
	}
	// The issue feed tab is optional.
	sysIssues, err := wb.Table(cfg.Workbook.SysIssues)
	if err != nil {
		sysIssues = nil
	}

	eng := engine.New(engine.Tables{
		Master:    master,
		Clean:     clean,
		Roster:    roster,
		Ledger:    ledger,
		SysIssues: sysIssues,
	})
	return eng, wb, nil
}

func newMembershipClient() *membership.Client {
	return membership.New(
		cfg.Webhook.URL,
		time.Duration(cfg.Webhook.TimeoutSecs)*time.Second,
		membership.WithRate(cfg.Webhook.RatePerSec),
	)
}

// notifyValidated posts the validation webhook for each entry. Failures
// are non-fatal: the payload lands in the store outbox for a later
// `outbox flush`.
func notifyValidated(ctx context.Context, st store.Store, entries []model.RosterEntry) {
	if len(entries) == 0 {
		return
	}
	client := newMembershipClient()
	for _, entry := range entries {
		p := membership.Payload{
			Email:     entry.Email,
			FirstName: entry.FirstName,
			LastName:  entry.LastName,
			PTIN:      entry.PTIN,
		}
		if err := client.Notify(ctx, p); err != nil {
			zap.L().Warn("validation webhook failed, queued",
				zap.String("email", entry.Email), zap.Error(err))
			n := store.Notification{
				Email:     entry.Email,
				FirstName: entry.FirstName,
				LastName:  entry.LastName,
				PTIN:      entry.PTIN,
			}
			if qerr := st.EnqueueNotification(ctx, n); qerr != nil {
				zap.L().Error("enqueue notification failed",
					zap.String("email", entry.Email), zap.Error(qerr))
			}
		}
	}
}

// recordRun wraps an operation in a run-log entry.
func recordRun(ctx context.Context, st store.Store, operation string, fn func() (store.RunSummary, error)) error {
	runID, err := st.StartRun(ctx, operation)
	if err != nil {
		return err
	}
	summary, opErr := fn()
	if opErr != nil {
		summary.Note = opErr.Error()
	}
	if err := st.FinishRun(ctx, runID, summary); err != nil {
		zap.L().Warn("finish run failed", zap.String("run", runID), zap.Error(err))
	}
	return opErr
}
