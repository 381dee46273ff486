package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irscelearn/ce-reporter/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.Local)
}

func TestDedupeKeyPriority(t *testing.T) {
	t.Parallel()

	// Same PTIN+Program, different emails: one survivor.
	records := []model.AttendeeRecord{
		{PTIN: "P01234567", Program: "ABC", Email: "a@x.com"},
		{PTIN: "P01234567", Program: "ABC", Email: "b@x.com"},
	}
	out := Dedupe(records, Options[model.AttendeeRecord]{
		Keys:    []func(model.AttendeeRecord) string{PTINProgram, EmailProgram},
		Unkeyed: Drop,
	})
	require.Len(t, out, 1)
	assert.Equal(t, "b@x.com", out[0].Email, "tie goes to the later row")
}

func TestDedupeKeyFallback(t *testing.T) {
	t.Parallel()

	// No PTIN: the email key identifies the duplicate pair.
	records := []model.AttendeeRecord{
		{Email: "a@x.com", Program: "ABC", FirstName: "Jane"},
		{Email: "a@x.com", Program: "ABC", FirstName: "Janet"},
		{Email: "a@x.com", Program: "DEF"},
	}
	out := Dedupe(records, Options[model.AttendeeRecord]{
		Keys:    []func(model.AttendeeRecord) string{PTINProgram, EmailProgram},
		Unkeyed: Drop,
	})
	assert.Len(t, out, 2, "distinct programs stay distinct")
}

func TestDedupeRecency(t *testing.T) {
	t.Parallel()

	records := []model.AttendeeRecord{
		{PTIN: "P01234567", Program: "ABC", Hours: "1", ReportedAt: day(5)},
		{PTIN: "P01234567", Program: "ABC", Hours: "2", ReportedAt: day(1)},
	}
	out := Dedupe(records, Options[model.AttendeeRecord]{
		Keys:    []func(model.AttendeeRecord) string{PTINProgram},
		Recency: RecordRecency,
		Unkeyed: Drop,
	})
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].Hours, "strictly greater recency wins over input order")
}

func TestDedupeRecencyTieGoesToLater(t *testing.T) {
	t.Parallel()

	records := []model.AttendeeRecord{
		{PTIN: "P01234567", Program: "ABC", Hours: "first"},
		{PTIN: "P01234567", Program: "ABC", Hours: "second"},
	}
	out := Dedupe(records, Options[model.AttendeeRecord]{
		Keys:    []func(model.AttendeeRecord) string{PTINProgram},
		Recency: RecordRecency,
		Unkeyed: Drop,
	})
	require.Len(t, out, 1)
	assert.Equal(t, "second", out[0].Hours)
}

func TestDedupeScoredBeatsUnscored(t *testing.T) {
	t.Parallel()

	records := []model.AttendeeRecord{
		{PTIN: "P01234567", Program: "ABC", Hours: "scored", CompletionDate: day(2)},
		{PTIN: "P01234567", Program: "ABC", Hours: "unscored"},
	}
	out := Dedupe(records, Options[model.AttendeeRecord]{
		Keys:    []func(model.AttendeeRecord) string{PTINProgram},
		Recency: RecordRecency,
		Unkeyed: Drop,
	})
	require.Len(t, out, 1)
	assert.Equal(t, "scored", out[0].Hours)
}

func TestDedupeFirstWinsWithBlankMerge(t *testing.T) {
	t.Parallel()

	records := []model.AttendeeRecord{
		{Program: "ABC", Email: "a@x.com", FirstName: "Jane"},
		{Program: "ABC", Email: "a@x.com", FirstName: "IGNORED", LastName: "Doe", PTIN: "P01234567"},
	}
	out := Dedupe(records, Options[model.AttendeeRecord]{
		Keys:        []func(model.AttendeeRecord) string{ProgramEmail},
		FirstWins:   true,
		MergeBlanks: MergeRecordBlanks,
		Unkeyed:     Drop,
	})
	require.Len(t, out, 1)
	assert.Equal(t, "Jane", out[0].FirstName, "winner's non-blank field survives")
	assert.Equal(t, "Doe", out[0].LastName, "winner's blank filled from loser")
	assert.Equal(t, "P01234567", out[0].PTIN)
}

func TestDedupeUnkeyedPolicies(t *testing.T) {
	t.Parallel()

	records := []model.AttendeeRecord{
		{PTIN: "P01234567", Program: "ABC"},
		{FirstName: "No", LastName: "Key"},
	}
	opts := Options[model.AttendeeRecord]{
		Keys:    []func(model.AttendeeRecord) string{PTINProgram},
		Unkeyed: Drop,
	}
	assert.Len(t, Dedupe(records, opts), 1)

	opts.Unkeyed = Keep
	out := Dedupe(records, opts)
	require.Len(t, out, 2)
	assert.Equal(t, "No", out[1].FirstName, "kept unkeyed rows hold position")
}

func TestDedupeStableOrder(t *testing.T) {
	t.Parallel()

	records := []model.AttendeeRecord{
		{PTIN: "P00000001", Program: "A"},
		{PTIN: "P00000002", Program: "A"},
		{PTIN: "P00000001", Program: "A", Hours: "9"},
		{PTIN: "P00000003", Program: "A"},
	}
	out := Dedupe(records, Options[model.AttendeeRecord]{
		Keys:    []func(model.AttendeeRecord) string{PTINProgram},
		Unkeyed: Drop,
	})
	require.Len(t, out, 3)
	assert.Equal(t, "P00000001", out[0].PTIN, "first occurrence keeps its slot")
	assert.Equal(t, "9", out[0].Hours, "later duplicate's content won")
	assert.Equal(t, "P00000002", out[1].PTIN)
	assert.Equal(t, "P00000003", out[2].PTIN)
}

func TestRosterDedupeWholesale(t *testing.T) {
	t.Parallel()

	entries := []model.RosterEntry{
		{Email: "a@x.com", PTIN: "P00000001", FirstName: "Old"},
		{Email: "a@x.com", PTIN: "P00000002", FirstName: "New"},
		{FirstName: "keyless"},
	}
	out := Dedupe(entries, Options[model.RosterEntry]{
		Keys:    []func(model.RosterEntry) string{RosterKey},
		Unkeyed: Drop,
	})
	require.Len(t, out, 1)
	assert.Equal(t, "P00000002", out[0].PTIN, "later row wins wholesale, no field merge")
	assert.Equal(t, "New", out[0].FirstName)
}

func TestLedgerRecency(t *testing.T) {
	t.Parallel()

	entries := []model.LedgerEntry{
		{PTIN: "P00000001", Program: "A", Hours: "2", DateReported: day(10)},
		{PTIN: "P00000001", Program: "A", Hours: "1", DateReported: day(3)},
		{PTIN: "P00000001", Program: "B", Hours: "5", CompletionDate: day(1)},
	}
	out := Dedupe(entries, Options[model.LedgerEntry]{
		Keys:    []func(model.LedgerEntry) string{LedgerKey},
		Recency: LedgerRecency,
		Unkeyed: Drop,
	})
	require.Len(t, out, 2)
	assert.Equal(t, "2", out[0].Hours, "latest date reported wins")
	assert.Equal(t, "5", out[1].Hours, "completion date is the fallback score")
}
