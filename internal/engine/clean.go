package engine

import (
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/classify"
	"github.com/irscelearn/ce-reporter/internal/dedupe"
	"github.com/irscelearn/ce-reporter/internal/header"
	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/normalize"
)

// BuildCleanUpload rebuilds the Clean staging table from Master: dedupe
// Master and the Roster, backfill Master PTINs, then stage every row
// that classifies as upload-ready. Hard exclusions, in order: already
// reported, matched by the unresolved-issue index under any key form,
// or carrying any non-blank issue of its own. Candidates need both a
// PTIN and a program and are collapsed by PTIN+Program, last row
// winning. Completion dates get the upload-window correction as they
// are written.
func (e *Engine) BuildCleanUpload() (staged int, err error) {
	if _, _, err := e.DedupeMaster(); err != nil {
		return 0, err
	}
	if _, _, err := e.DedupeRoster(); err != nil {
		return 0, err
	}
	if _, _, err := e.BackfillMasterFromRoster(); err != nil {
		return 0, err
	}

	d, err := loadMaster(e.t.Master)
	if err != nil {
		return 0, err
	}
	lookup, err := e.rosterLookup()
	if err != nil {
		return 0, err
	}

	unresolved := buildUnresolvedIssueIndex(d.rows)

	var candidates []model.AttendeeRecord
	for _, r := range d.rows {
		rec := r.rec
		switch {
		case rec.Reported:
			continue
		case unresolved[dedupe.PTINProgram(rec)],
			unresolved[dedupe.EmailProgram(rec)],
			unresolved[dedupe.NameProgram(rec)]:
			continue
		case rec.Issue != model.IssueNone:
			continue
		}
		if !classify.Classify(rec, lookup).Good() {
			continue
		}
		if rec.PTIN == "" || rec.Program == "" {
			continue
		}
		candidates = append(candidates, rec)
	}

	candidates = dedupe.Dedupe(candidates, dedupe.Options[model.AttendeeRecord]{
		Keys:    []func(model.AttendeeRecord) string{dedupe.PTINProgram},
		Unkeyed: dedupe.Drop,
	})

	cd, err := loadClean(e.t.Clean)
	if err != nil {
		return 0, err
	}
	now := e.now()
	rows := make([][]string, 0, len(candidates))
	for _, rec := range candidates {
		cells := make([]string, len(cd.header))
		setCell(cells, cd.cols.Col(header.FieldFirstName), rec.FirstName)
		setCell(cells, cd.cols.Col(header.FieldLastName), rec.LastName)
		setCell(cells, cd.cols.Col(header.FieldPTIN), rec.PTIN)
		setCell(cells, cd.cols.Col(header.FieldEmail), rec.Email)
		setCell(cells, cd.cols.Col(header.FieldProgram), rec.Program)
		setCell(cells, cd.cols.Col(header.FieldHours), rec.Hours)
		if rec.CompletionDate.IsZero() {
			setCell(cells, cd.cols.Col(header.FieldCompletion), rec.CompletionRaw)
		} else {
			clamped := normalize.ClampToWindow(rec.CompletionDate, now)
			setCell(cells, cd.cols.Col(header.FieldCompletion), normalize.FormatMDY(clamped))
		}
		rows = append(rows, cells)
	}
	if err := e.t.Clean.WriteBody(rows); err != nil {
		return 0, err
	}
	zap.L().Info("clean upload built", zap.Int("staged", len(rows)), zap.Int("master_rows", len(d.rows)))
	return len(rows), nil
}

// buildUnresolvedIssueIndex keys every row whose issue is non-blank and
// not Fixed under all three composite key forms, so a flagged identity
// blocks its duplicates too.
func buildUnresolvedIssueIndex(rows []*masterRow) map[string]bool {
	idx := make(map[string]bool)
	for _, r := range rows {
		if r.rec.Issue.Good() {
			continue
		}
		for _, k := range []string{
			dedupe.PTINProgram(r.rec),
			dedupe.EmailProgram(r.rec),
			dedupe.NameProgram(r.rec),
		} {
			if k != "" {
				idx[k] = true
			}
		}
	}
	// Blank composite keys never block anything.
	delete(idx, "")
	return idx
}

// MarkResult is the outcome of one MarkCleanAsReported chunk.
type MarkResult struct {
	// Scanned is how many Clean rows the chunk consumed; job offsets
	// advance by this. Processed counts the rows actually marked.
	Scanned   int
	Processed int
	Done      bool
	// Validated holds Roster entries that newly flipped valid during
	// this chunk; callers dispatch notifications for them.
	Validated []model.RosterEntry
}

// MarkCleanAsReported marks one chunk of Clean rows as reported: the
// matching Master row (Program+Email first, Program+PTIN fallback) gets
// its reported flags set, its issue and last-updated markers cleared,
// and blank identity fields filled from the Clean row; a ledger entry is
// appended; the touched identities flip the Roster's Valid flag. The
// final chunk clears the Clean body and resyncs Master from the ledger.
// Safe to re-run at the same offset: marking is idempotent and Clean is
// only cleared after the last chunk.
func (e *Engine) MarkCleanAsReported(offset, limit int) (*MarkResult, error) {
	cd, err := loadClean(e.t.Clean)
	if err != nil {
		return nil, err
	}
	d, err := loadMaster(e.t.Master)
	if err != nil {
		return nil, err
	}
	ld, err := loadLedger(e.t.Ledger)
	if err != nil {
		return nil, err
	}

	byProgEmail := make(map[string]*masterRow)
	byProgPTIN := make(map[string]*masterRow)
	for _, r := range d.rows {
		if r.rec.Program == "" {
			continue
		}
		if r.rec.Email != "" {
			byProgEmail[r.rec.Program+"|"+r.rec.Email] = r
		}
		if r.rec.PTIN != "" {
			byProgPTIN[r.rec.Program+"|"+r.rec.PTIN] = r
		}
	}

	if offset < 0 {
		offset = 0
	}
	start := min(offset, len(cd.rows))
	end := offset + limit
	if limit <= 0 || end > len(cd.rows) {
		end = len(cd.rows)
	}
	chunk := cd.rows[start:end]

	now := e.now()
	touched := make(map[string]bool)
	var ledgerRows [][]string
	processed := 0
	for _, cr := range chunk {
		rec := cr.rec
		if rec.Issue != model.IssueNone {
			continue
		}
		target := byProgEmail[rec.Program+"|"+rec.Email]
		if target == nil {
			target = byProgPTIN[rec.Program+"|"+rec.PTIN]
		}
		if target == nil {
			zap.L().Warn("clean row matched no master row",
				zap.String("email", rec.Email), zap.String("ptin", rec.PTIN),
				zap.String("program", rec.Program))
			continue
		}

		target.rec.Reported = true
		target.rec.ReportedAt = now
		target.rec.Issue = model.IssueNone
		setCell(target.cells, d.cols.Col(header.FieldLastUpdated), "")
		// Identity copy is non-destructive: only blank Master fields take
		// the Clean value.
		target.rec = dedupe.MergeRecordBlanks(target.rec, rec)

		ledgerRows = append(ledgerRows, ld.renderEntry(model.LedgerEntry{
			FirstName:      target.rec.FirstName,
			LastName:       target.rec.LastName,
			PTIN:           target.rec.PTIN,
			Program:        target.rec.Program,
			Hours:          target.rec.Hours,
			Email:          target.rec.Email,
			CompletionDate: rec.CompletionDate,
			DateReported:   now,
		}))

		if target.rec.PTIN != "" {
			touched[target.rec.PTIN] = true
		}
		if target.rec.Email != "" {
			touched[target.rec.Email] = true
		}
		processed++
	}

	if err := d.flush(e.t.Master); err != nil {
		return nil, err
	}
	if len(ledgerRows) > 0 {
		if err := e.t.Ledger.Append(ledgerRows); err != nil {
			return nil, err
		}
	}

	res := &MarkResult{Scanned: end - start, Processed: processed, Done: end >= len(cd.rows)}
	if len(touched) > 0 {
		validated, err := e.validateRoster(touched)
		if err != nil {
			return nil, err
		}
		res.Validated = validated
	}

	if res.Done {
		if err := e.t.Clean.WriteBody(nil); err != nil {
			return nil, err
		}
		if _, err := e.SyncMasterFromLedger(); err != nil {
			return nil, err
		}
	}
	zap.L().Info("clean chunk marked reported",
		zap.Int("offset", offset), zap.Int("processed", processed), zap.Bool("done", res.Done))
	return res, nil
}
