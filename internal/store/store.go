package store

import (
	"context"
	"time"
)

// RunSummary captures the outcome counts of one engine operation.
type RunSummary struct {
	Processed int    `json:"processed"`
	Updated   int    `json:"updated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Note      string `json:"note,omitempty"`
}

// Notification is a queued roster-validation webhook delivery.
type Notification struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	PTIN      string    `json:"ptin,omitempty"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists state that must survive between CLI invocations: the
// offsets of resumable jobs, an operation run log, and the webhook
// outbox. The workbook itself is never stored here.
type Store interface {
	// Resumable jobs
	GetOffset(ctx context.Context, jobKey string) (int, error)
	SaveOffset(ctx context.Context, jobKey string, offset int) error
	ClearOffset(ctx context.Context, jobKey string) error

	// Operation run log
	StartRun(ctx context.Context, operation string) (string, error)
	FinishRun(ctx context.Context, runID string, summary RunSummary) error

	// Webhook outbox
	EnqueueNotification(ctx context.Context, n Notification) error
	PendingNotifications(ctx context.Context, limit int) ([]Notification, error)
	MarkNotified(ctx context.Context, id string) error
	MarkNotifyFailed(ctx context.Context, id string, lastError string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
