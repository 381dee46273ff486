// Package job drives resumable chunked operations: a step function is
// invoked repeatedly with a persisted offset until it reports done or
// the wall-clock budget runs out, at which point the saved offset lets a
// later invocation resume.
package job

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/store"
)

// Step processes up to limit rows starting at offset. It returns how
// many rows it handled and whether the job is finished. Steps must be
// safe to re-run at the same offset.
type Step func(offset, limit int) (processed int, done bool, err error)

// Runner loops a Step against a persisted offset.
type Runner struct {
	store  store.Store
	limit  int
	budget time.Duration
	now    func() time.Time
}

// NewRunner builds a Runner. limit is the chunk size; budget is the
// wall-clock ceiling for one Run call.
func NewRunner(s store.Store, limit int, budget time.Duration) *Runner {
	return &Runner{store: s, limit: limit, budget: budget, now: time.Now}
}

// Outcome reports how a Run ended.
type Outcome struct {
	Processed int
	Chunks    int
	Done      bool
	// Offset is where a resumed run will pick up; meaningful only when
	// Done is false.
	Offset int
}

// Run executes the job named by jobKey from its persisted offset. The
// offset is saved only after a chunk succeeds, so a failed chunk resumes
// from its own start. When the job completes the offset is cleared.
func (r *Runner) Run(ctx context.Context, jobKey string, step Step) (*Outcome, error) {
	offset, err := r.store.GetOffset(ctx, jobKey)
	if err != nil {
		return nil, err
	}
	deadline := r.now().Add(r.budget)
	out := &Outcome{Offset: offset}

	for {
		if err := ctx.Err(); err != nil {
			return out, eris.Wrapf(err, "job: %s canceled", jobKey)
		}
		processed, done, err := step(offset, r.limit)
		if err != nil {
			return out, eris.Wrapf(err, "job: %s step at offset %d", jobKey, offset)
		}
		offset += processed
		out.Processed += processed
		out.Chunks++
		out.Offset = offset

		if done {
			if err := r.store.ClearOffset(ctx, jobKey); err != nil {
				return out, err
			}
			out.Done = true
			zap.L().Info("job finished", zap.String("job", jobKey),
				zap.Int("processed", out.Processed), zap.Int("chunks", out.Chunks))
			return out, nil
		}
		if err := r.store.SaveOffset(ctx, jobKey, offset); err != nil {
			return out, err
		}
		if !r.now().Before(deadline) {
			zap.L().Info("job paused at budget", zap.String("job", jobKey),
				zap.Int("offset", offset), zap.Int("processed", out.Processed))
			return out, nil
		}
	}
}

// Reset clears the persisted offset so the next Run starts over.
func (r *Runner) Reset(ctx context.Context, jobKey string) error {
	return r.store.ClearOffset(ctx, jobKey)
}
