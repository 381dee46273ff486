// Package edit holds the business rules that react to single-cell
// edits. ApplyEdit is pure: it inspects one edit and returns the effects
// the caller must apply, so the rules are testable without any workbook
// or HTTP host.
package edit

import (
	"github.com/irscelearn/ce-reporter/internal/header"
	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/normalize"
)

// Table names a logical table an edit landed on.
type Table string

const (
	TableMaster Table = "master"
	TableRoster Table = "roster"
)

// Edit is one observed cell change. Roster carries the row's current
// entry when the edit landed on the Roster table.
type Edit struct {
	Table Table
	Row   int
	Field header.Field
	Old   string
	New   string

	Roster *model.RosterEntry
}

// Effect is one action the caller must carry out.
type Effect interface{ effect() }

// SyncIdentityToMaster copies a vetted Roster identity onto every Master
// row matching it by email or PTIN.
type SyncIdentityToMaster struct {
	Entry model.RosterEntry
}

// ClearIssue clears the issue status on Master rows matching the
// identity; vetting resolves the flagged condition.
type ClearIssue struct {
	Entry model.RosterEntry
}

// Notify posts the roster-validated webhook for the identity.
type Notify struct {
	Entry model.RosterEntry
}

// RewriteCell replaces the edited cell's value, used to canonicalize
// what was typed.
type RewriteCell struct {
	Table Table
	Row   int
	Field header.Field
	Value string
}

// FlagIssue stamps an issue status on the edited row.
type FlagIssue struct {
	Table Table
	Row   int
	Issue model.IssueStatus
}

func (SyncIdentityToMaster) effect() {}
func (ClearIssue) effect()           {}
func (Notify) effect()               {}
func (RewriteCell) effect()          {}
func (FlagIssue) effect()            {}

// ApplyEdit evaluates one edit against the rules:
//
// A Roster Valid cell flipping to true means a human vetted the
// identity: the identity syncs to Master, its issues clear, and the
// validation webhook fires. Flipping to false produces nothing.
//
// A Master PTIN cell edit is canonicalized in place; an edit that
// normalizes to the all-zero PTIN flags the row immediately rather than
// waiting for the next recheck.
func ApplyEdit(e Edit) []Effect {
	switch {
	case e.Table == TableRoster && e.Field == header.FieldValid:
		if !normalize.ParseBool(e.New) || normalize.ParseBool(e.Old) {
			return nil
		}
		if e.Roster == nil {
			return nil
		}
		entry := *e.Roster
		entry.Valid = true
		return []Effect{
			SyncIdentityToMaster{Entry: entry},
			ClearIssue{Entry: entry},
			Notify{Entry: entry},
		}

	case e.Table == TableMaster && e.Field == header.FieldPTIN:
		canonical := normalize.PTIN(e.New)
		var effects []Effect
		if canonical != e.New {
			effects = append(effects, RewriteCell{
				Table: e.Table, Row: e.Row, Field: e.Field, Value: canonical,
			})
		}
		if canonical == normalize.AllZeroPTIN {
			effects = append(effects, FlagIssue{
				Table: e.Table, Row: e.Row, Issue: model.IssuePTINNotExist,
			})
		}
		return effects
	}
	return nil
}
