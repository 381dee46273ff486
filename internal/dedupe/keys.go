package dedupe

import (
	"strings"
	"time"

	"github.com/irscelearn/ce-reporter/internal/model"
)

// Key strategies for attendee records. Every key requires a non-empty
// program: a person is unique per program, never globally.

// PTINProgram keys a record by PTIN|Program.
func PTINProgram(r model.AttendeeRecord) string {
	if r.PTIN == "" || r.Program == "" {
		return ""
	}
	return r.PTIN + "|" + r.Program
}

// EmailProgram keys a record by Email|Program.
func EmailProgram(r model.AttendeeRecord) string {
	if r.Email == "" || r.Program == "" {
		return ""
	}
	return r.Email + "|" + r.Program
}

// NameProgram keys a record by "first last"|Program, case-folded.
func NameProgram(r model.AttendeeRecord) string {
	first := strings.ToLower(strings.TrimSpace(r.FirstName))
	last := strings.ToLower(strings.TrimSpace(r.LastName))
	if first == "" || last == "" || r.Program == "" {
		return ""
	}
	return first + " " + last + "|" + r.Program
}

// ProgramEmail keys a record by Program|Email, the Master dedup key.
func ProgramEmail(r model.AttendeeRecord) string {
	if r.Program == "" {
		return ""
	}
	return r.Program + "|" + r.Email
}

// RecordRecency scores a record by ReportedAt, falling back to the
// completion date. Records with neither are unscored.
func RecordRecency(r model.AttendeeRecord) (time.Time, bool) {
	if !r.ReportedAt.IsZero() {
		return r.ReportedAt, true
	}
	if !r.CompletionDate.IsZero() {
		return r.CompletionDate, true
	}
	return time.Time{}, false
}

// LedgerKey keys a ledger entry by Program|PTIN.
func LedgerKey(e model.LedgerEntry) string {
	if e.PTIN == "" || e.Program == "" {
		return ""
	}
	return e.Program + "|" + e.PTIN
}

// LedgerRecency scores a ledger entry by Date Reported, falling back to
// the completion date.
func LedgerRecency(e model.LedgerEntry) (time.Time, bool) {
	if !e.DateReported.IsZero() {
		return e.DateReported, true
	}
	if !e.CompletionDate.IsZero() {
		return e.CompletionDate, true
	}
	return time.Time{}, false
}

// RosterKey keys a roster entry by email, PTIN fallback.
func RosterKey(e model.RosterEntry) string { return e.Key() }

// MergeRecordBlanks fills the winner's blank fields from the loser,
// never touching a non-blank winner field.
func MergeRecordBlanks(winner, loser model.AttendeeRecord) model.AttendeeRecord {
	if winner.FirstName == "" {
		winner.FirstName = loser.FirstName
	}
	if winner.LastName == "" {
		winner.LastName = loser.LastName
	}
	if winner.PTIN == "" {
		winner.PTIN = loser.PTIN
	}
	if winner.Email == "" {
		winner.Email = loser.Email
	}
	if winner.Program == "" {
		winner.Program = loser.Program
	}
	if winner.Hours == "" {
		winner.Hours = loser.Hours
	}
	if winner.CompletionDate.IsZero() {
		winner.CompletionDate = loser.CompletionDate
		if winner.CompletionRaw == "" {
			winner.CompletionRaw = loser.CompletionRaw
		}
	}
	if winner.Issue == model.IssueNone {
		winner.Issue = loser.Issue
	}
	if !winner.Reported {
		winner.Reported = loser.Reported
	}
	if winner.ReportedAt.IsZero() {
		winner.ReportedAt = loser.ReportedAt
	}
	if winner.Group == "" {
		winner.Group = loser.Group
	}
	return winner
}
