package engine

import (
	"strings"

	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/classify"
	"github.com/irscelearn/ce-reporter/internal/dedupe"
	"github.com/irscelearn/ce-reporter/internal/header"
	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/normalize"
)

// DedupeMaster collapses Master rows by Program+Email. The first row for
// a key wins and its blank fields are filled from later duplicates; rows
// with no program are dropped from the output. Returns kept and removed
// counts.
func (e *Engine) DedupeMaster() (kept, removed int, err error) {
	d, err := loadMaster(e.t.Master)
	if err != nil {
		return 0, 0, err
	}

	deduped := dedupe.Dedupe(d.rows, dedupe.Options[*masterRow]{
		Keys: []func(*masterRow) string{
			func(r *masterRow) string { return dedupe.ProgramEmail(r.rec) },
		},
		FirstWins: true,
		MergeBlanks: func(winner, loser *masterRow) *masterRow {
			winner.rec = dedupe.MergeRecordBlanks(winner.rec, loser.rec)
			return winner
		},
		Unkeyed: dedupe.Drop,
	})

	kept, removed = len(deduped), len(d.rows)-len(deduped)
	d.rows = deduped
	if err := d.flush(e.t.Master); err != nil {
		return 0, 0, err
	}
	zap.L().Info("master deduped", zap.Int("kept", kept), zap.Int("removed", removed))
	return kept, removed, nil
}

// RecheckMaster reruns the classifier over every Master row and writes
// the resulting status back to the issue column. Reported rows get a
// blank issue. Returns the number of rows whose status changed.
func (e *Engine) RecheckMaster() (changed int, err error) {
	d, err := loadMaster(e.t.Master)
	if err != nil {
		return 0, err
	}
	lookup, err := e.rosterLookup()
	if err != nil {
		return 0, err
	}

	for _, r := range d.rows {
		var status model.IssueStatus
		switch {
		case r.rec.Reported:
			status = model.IssueNone
		case strings.EqualFold(strings.TrimSpace(string(r.rec.Issue)), string(model.IssueFixed)):
			// The override is terminal; keep the marker so later passes
			// still see it.
			status = model.IssueFixed
		default:
			status = classify.Classify(r.rec, lookup)
		}
		if status != r.rec.Issue {
			changed++
		}
		r.rec.Issue = status
	}
	if err := d.flush(e.t.Master); err != nil {
		return 0, err
	}
	zap.L().Info("master rechecked", zap.Int("rows", len(d.rows)), zap.Int("changed", changed))
	return changed, nil
}

// SyncMasterFromLedger restores Master's reported flags from the ledger,
// the recovery path when Master's state is lost. Rows whose PTIN+Program
// appears in the ledger are marked reported with the ledger's date; blank
// hours and completion dates are filled from the ledger entry.
func (e *Engine) SyncMasterFromLedger() (updated int, err error) {
	d, err := loadMaster(e.t.Master)
	if err != nil {
		return 0, err
	}
	ld, err := loadLedger(e.t.Ledger)
	if err != nil {
		return 0, err
	}

	latest := dedupe.Dedupe(ld.entries, dedupe.Options[model.LedgerEntry]{
		Keys:    []func(model.LedgerEntry) string{dedupe.LedgerKey},
		Recency: dedupe.LedgerRecency,
		Unkeyed: dedupe.Drop,
	})
	byKey := make(map[string]model.LedgerEntry, len(latest))
	for _, entry := range latest {
		byKey[dedupe.LedgerKey(entry)] = entry
	}

	for _, r := range d.rows {
		if r.rec.PTIN == "" || r.rec.Program == "" {
			continue
		}
		entry, ok := byKey[r.rec.Program+"|"+r.rec.PTIN]
		if !ok {
			continue
		}
		reportedAt := entry.DateReported
		if reportedAt.IsZero() {
			reportedAt = entry.CompletionDate
		}
		if reportedAt.IsZero() {
			// A reported row must carry a reported date; a ledger entry
			// with no usable date cannot supply one.
			continue
		}
		if !r.rec.Reported || r.rec.ReportedAt.IsZero() {
			updated++
		}
		r.rec.Reported = true
		r.rec.ReportedAt = reportedAt
		r.rec.Issue = model.IssueNone
		if r.rec.Hours == "" {
			r.rec.Hours = entry.Hours
		}
		if r.rec.CompletionDate.IsZero() && !entry.CompletionDate.IsZero() {
			r.rec.CompletionDate = entry.CompletionDate
		}
	}
	if err := d.flush(e.t.Master); err != nil {
		return 0, err
	}
	zap.L().Info("master synced from ledger", zap.Int("updated", updated))
	return updated, nil
}

// IngestSystemIssues applies an externally-ingested issue feed to Master:
// each feed row's free-text status is mapped onto the issue vocabulary
// and stamped on the matching Master row (PTIN+Program first, name+
// Program fallback). A flagged row is also un-reported so it re-enters
// the reconciliation cycle, and any matching Clean row is tagged so the
// next upload skips it.
func (e *Engine) IngestSystemIssues() (applied int, err error) {
	if e.t.SysIssues == nil {
		return 0, nil
	}
	hdr, body, err := e.t.SysIssues.ReadAll()
	if err != nil {
		return 0, err
	}
	cols := header.Map(hdr, header.SysIssues)
	if err := cols.Require(e.t.SysIssues.Name(), header.FieldIssue); err != nil {
		return 0, err
	}

	d, err := loadMaster(e.t.Master)
	if err != nil {
		return 0, err
	}
	byPTIN := make(map[string]*masterRow)
	byName := make(map[string]*masterRow)
	for _, r := range d.rows {
		if k := dedupe.PTINProgram(r.rec); k != "" {
			byPTIN[k] = r
		}
		if k := dedupe.NameProgram(r.rec); k != "" {
			byName[k] = r
		}
	}

	cd, err := loadClean(e.t.Clean)
	if err != nil {
		return 0, err
	}
	cleanByPTIN := make(map[string]*masterRow)
	for _, r := range cd.rows {
		if k := dedupe.PTINProgram(r.rec); k != "" {
			cleanByPTIN[k] = r
		}
	}

	for _, cells := range body {
		status := classify.FromFreeText(cell(cells, cols.Col(header.FieldIssue)))
		if status == model.IssueNone {
			continue
		}
		probe := model.AttendeeRecord{
			FirstName: cell(cells, cols.Col(header.FieldFirstName)),
			LastName:  cell(cells, cols.Col(header.FieldLastName)),
			PTIN:      normalize.PTIN(cell(cells, cols.Col(header.FieldPTIN))),
			Program:   normalize.Program(cell(cells, cols.Col(header.FieldProgram))),
		}
		target := byPTIN[dedupe.PTINProgram(probe)]
		if target == nil {
			target = byName[dedupe.NameProgram(probe)]
		}
		if target == nil {
			zap.L().Debug("issue feed row matched nothing",
				zap.String("ptin", probe.PTIN), zap.String("program", probe.Program))
			continue
		}
		target.rec.Issue = status
		target.rec.Reported = false
		target.rec.ReportedAt = zeroTime
		applied++

		if cr := cleanByPTIN[dedupe.PTINProgram(target.rec)]; cr != nil {
			cr.rec.Issue = status
			setCell(cr.cells, cd.cols.Col(header.FieldIssue), string(status))
		}
	}

	if err := d.flush(e.t.Master); err != nil {
		return 0, err
	}
	cleanRows := make([][]string, 0, len(cd.rows))
	for _, r := range cd.rows {
		cleanRows = append(cleanRows, r.cells)
	}
	if err := e.t.Clean.WriteBody(cleanRows); err != nil {
		return 0, err
	}
	zap.L().Info("system issues ingested", zap.Int("applied", applied), zap.Int("feed_rows", len(body)))
	return applied, nil
}

// rosterLookup builds a PTIN-to-name lookup over the Roster for the
// classifier's name check.
func (e *Engine) rosterLookup() (classify.RosterLookup, error) {
	rd, err := loadRoster(e.t.Roster)
	if err != nil {
		return nil, err
	}
	byPTIN := make(map[string]model.RosterEntry, len(rd.entries))
	for _, entry := range rd.entries {
		if entry.PTIN != "" {
			byPTIN[entry.PTIN] = entry
		}
	}
	return func(ptin string) (string, string, bool) {
		entry, ok := byPTIN[strings.ToUpper(strings.TrimSpace(ptin))]
		if !ok {
			return "", "", false
		}
		return entry.FirstName, entry.LastName, true
	}, nil
}
