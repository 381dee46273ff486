package model

import "time"

// IssueStatus is the reporting-issue classification for a Master row.
// The string values match the vocabulary used on the workbook itself, so
// they round-trip through the issue column unchanged.
type IssueStatus string

const (
	IssueNone         IssueStatus = ""
	IssueMissingPTIN  IssueStatus = "Missing PTIN"
	IssuePTINNotExist IssueStatus = "PTIN does not exist"
	IssueNameMismatch IssueStatus = "PTIN & name do not match"
	IssueOther        IssueStatus = "Other"
	// IssueFixed is a terminal human override: the row is treated as good
	// and ordinary recheck passes must not re-flag it.
	IssueFixed IssueStatus = "Fixed"
)

// IssueChoices are the statuses a human may pick on the workbook.
var IssueChoices = []IssueStatus{
	IssuePTINNotExist,
	IssueNameMismatch,
	IssueMissingPTIN,
	IssueOther,
}

// Good reports whether the status represents an upload-ready row.
func (s IssueStatus) Good() bool {
	return s == IssueNone || s == IssueFixed
}

// AttendeeRecord is one (attendee, program) row in its normalized form.
type AttendeeRecord struct {
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	PTIN           string      `json:"ptin"`    // canonical P0####### or empty
	Email          string      `json:"email"`   // lowercase, trimmed
	Program        string      `json:"program"` // uppercase, no whitespace
	Hours          string      `json:"hours"`
	CompletionDate time.Time   `json:"completion_date,omitzero"`
	CompletionRaw  string      `json:"completion_raw,omitempty"` // original cell when unparsable
	Issue          IssueStatus `json:"issue,omitempty"`
	Reported       bool        `json:"reported"`
	ReportedAt     time.Time   `json:"reported_at,omitzero"`
	Group          string      `json:"group,omitempty"`
}

// RosterEntry is one row of the attendee directory.
type RosterEntry struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PTIN      string `json:"ptin"`
	Email     string `json:"email"`
	Group     string `json:"group,omitempty"`
	Valid     bool   `json:"valid"` // a human has vetted this identity
}

// Key returns the roster dedup key: email primary, PTIN fallback.
func (r RosterEntry) Key() string {
	if r.Email != "" {
		return r.Email
	}
	return r.PTIN
}

// LedgerEntry is one append-only audit row of a successful reporting event.
type LedgerEntry struct {
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	PTIN           string    `json:"ptin"`
	Program        string    `json:"program"`
	Hours          string    `json:"hours"`
	Email          string    `json:"email,omitempty"`
	CompletionDate time.Time `json:"completion_date,omitzero"`
	DateReported   time.Time `json:"date_reported,omitzero"`
}

// Group is one entry of the group catalog: a cohort whose rows fan out to
// an externally-owned destination workbook.
type Group struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"` // workbook path or URL
}
