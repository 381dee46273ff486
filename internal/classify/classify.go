// Package classify assigns each record its reporting-issue status.
package classify

import (
	"strings"

	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/normalize"
)

// RosterLookup resolves a canonical PTIN to the vetted name on file, if
// any. A nil lookup disables the name-mismatch check.
type RosterLookup func(ptin string) (first, last string, ok bool)

// Classify runs the status state machine for one normalized record.
//
// Rules, in priority order: a stored "Fixed" is a human override and
// resolves to good; a stored "PTIN does not exist" is sticky and is
// preserved as-is; then missing, all-zero and malformed PTINs are
// flagged; then the roster name check; otherwise the record is good.
// Reported records are exempt and keep a blank issue.
func Classify(rec model.AttendeeRecord, roster RosterLookup) model.IssueStatus {
	if rec.Reported {
		return model.IssueNone
	}
	stored := strings.TrimSpace(string(rec.Issue))
	if strings.EqualFold(stored, string(model.IssueFixed)) {
		return model.IssueNone
	}
	if strings.EqualFold(stored, string(model.IssuePTINNotExist)) {
		// Sticky: only an explicit fix workflow clears this, even when
		// the PTIN cell now looks plausible.
		return model.IssuePTINNotExist
	}
	switch {
	case rec.PTIN == "":
		return model.IssueMissingPTIN
	case rec.PTIN == normalize.AllZeroPTIN:
		return model.IssuePTINNotExist
	case !normalize.ValidPTIN(rec.PTIN):
		return model.IssuePTINNotExist
	}
	if roster != nil {
		if first, last, ok := roster(rec.PTIN); ok {
			if !normalize.NamesMatch(rec.FirstName, rec.LastName, first, last) {
				return model.IssueNameMismatch
			}
		}
	}
	return model.IssueNone
}

// FromFreeText maps an externally-ingested status string onto the issue
// enum via the substring heuristics the upstream feed requires. Empty
// input stays empty.
func FromFreeText(txt string) model.IssueStatus {
	s := strings.ToLower(strings.TrimSpace(txt))
	if s == "" {
		return model.IssueNone
	}
	switch {
	case strings.Contains(s, "missing") && strings.Contains(s, "ptin"):
		return model.IssueMissingPTIN
	case strings.Contains(s, "does not exist"),
		strings.Contains(s, "invalid ptin"),
		strings.Contains(s, "ptin invalid"),
		strings.Contains(s, "all zero"):
		return model.IssuePTINNotExist
	case strings.Contains(s, "mismatch"),
		strings.Contains(s, "ptin & name"),
		strings.Contains(s, "ptin/name"):
		return model.IssueNameMismatch
	}
	for _, choice := range model.IssueChoices {
		if strings.EqualFold(s, string(choice)) {
			return choice
		}
	}
	return model.IssueOther
}
