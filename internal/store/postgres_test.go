package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresMigrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS job_offsets").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOffsets(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT offset_n FROM job_offsets").
		WithArgs("job-a").
		WillReturnRows(pgxmock.NewRows([]string{"offset_n"}).AddRow(240))

	offset, err := st.GetOffset(ctx, "job-a")
	require.NoError(t, err)
	assert.Equal(t, 240, offset)

	// Unknown keys read as zero, not as an error.
	mock.ExpectQuery("SELECT offset_n FROM job_offsets").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"offset_n"}))

	offset, err = st.GetOffset(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, offset)

	mock.ExpectExec("INSERT INTO job_offsets").
		WithArgs("job-a", 360).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, st.SaveOffset(ctx, "job-a", 360))

	mock.ExpectExec("DELETE FROM job_offsets").
		WithArgs("job-a").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, st.ClearOffset(ctx, "job-a"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunLog(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(pgxmock.AnyArg(), "markreported").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	runID, err := st.StartRun(ctx, "markreported")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	mock.ExpectExec("UPDATE runs SET summary").
		WithArgs(pgxmock.AnyArg(), runID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, st.FinishRun(ctx, runID, RunSummary{Processed: 3}))

	mock.ExpectExec("UPDATE runs SET summary").
		WithArgs(pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.Error(t, st.FinishRun(ctx, "missing", RunSummary{}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOutbox(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO webhook_outbox").
		WithArgs(pgxmock.AnyArg(), "jane@x.com", "Jane", "Doe", "P01234567").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, st.EnqueueNotification(ctx, Notification{
		Email: "jane@x.com", FirstName: "Jane", LastName: "Doe", PTIN: "P01234567",
	}))

	created := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, email, first_name, last_name, ptin").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "first_name", "last_name", "ptin", "attempts", "last_error", "created_at",
		}).AddRow("n1", "jane@x.com", "Jane", "Doe", "P01234567", 0, "", created))

	pending, err := st.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "n1", pending[0].ID)
	assert.Equal(t, "jane@x.com", pending[0].Email)

	mock.ExpectExec("UPDATE webhook_outbox SET sent_at").
		WithArgs("n1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, st.MarkNotified(ctx, "n1"))

	mock.ExpectExec("UPDATE webhook_outbox SET attempts").
		WithArgs("timeout", "n1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, st.MarkNotifyFailed(ctx, "n1", "timeout"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
