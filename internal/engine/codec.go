package engine

import (
	"strings"

	"github.com/irscelearn/ce-reporter/internal/header"
	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/normalize"
	"github.com/irscelearn/ce-reporter/internal/sheet"
)

// The codecs below load a table, resolve its header, and parse each body
// row into a normalized record while keeping the raw cells alongside.
// Writes render the mapped fields back into the raw cells, so columns
// the engine does not know about survive a rewrite untouched.

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func setCell(cells []string, i int, v string) {
	if i >= 0 && i < len(cells) {
		cells[i] = v
	}
}

type masterRow struct {
	cells []string
	rec   model.AttendeeRecord
}

type masterData struct {
	header []string
	cols   header.Mapping
	rows   []*masterRow
}

func loadMaster(tab sheet.Table) (*masterData, error) {
	hdr, body, err := tab.ReadAll()
	if err != nil {
		return nil, err
	}
	cols := header.Map(hdr, header.Master)
	if err := cols.Require(tab.Name(),
		header.FieldFirstName, header.FieldLastName, header.FieldPTIN,
		header.FieldEmail, header.FieldProgram, header.FieldIssue,
		header.FieldReported,
	); err != nil {
		return nil, err
	}
	d := &masterData{header: hdr, cols: cols}
	for _, cells := range body {
		d.rows = append(d.rows, &masterRow{cells: cells, rec: parseAttendee(cells, cols)})
	}
	return d, nil
}

func parseAttendee(cells []string, cols header.Mapping) model.AttendeeRecord {
	rec := model.AttendeeRecord{
		FirstName: cell(cells, cols.Col(header.FieldFirstName)),
		LastName:  cell(cells, cols.Col(header.FieldLastName)),
		PTIN:      normalize.PTIN(cell(cells, cols.Col(header.FieldPTIN))),
		Email:     normalize.Email(cell(cells, cols.Col(header.FieldEmail))),
		Program:   normalize.Program(cell(cells, cols.Col(header.FieldProgram))),
		Hours:     cell(cells, cols.Col(header.FieldHours)),
		Issue:     model.IssueStatus(cell(cells, cols.Col(header.FieldIssue))),
		Reported:  normalize.ParseBool(cell(cells, cols.Col(header.FieldReported))),
		Group:     cell(cells, cols.Col(header.FieldGroup)),
	}
	rec.CompletionRaw = cell(cells, cols.Col(header.FieldCompletion))
	if d, ok := normalize.ParseDate(rec.CompletionRaw); ok {
		rec.CompletionDate = d
	}
	if at, ok := normalize.ParseDate(cell(cells, cols.Col(header.FieldReportedAt))); ok {
		rec.ReportedAt = at
	}
	return rec
}

func renderAttendee(cells []string, cols header.Mapping, rec model.AttendeeRecord) {
	setCell(cells, cols.Col(header.FieldFirstName), rec.FirstName)
	setCell(cells, cols.Col(header.FieldLastName), rec.LastName)
	setCell(cells, cols.Col(header.FieldPTIN), rec.PTIN)
	setCell(cells, cols.Col(header.FieldEmail), rec.Email)
	setCell(cells, cols.Col(header.FieldProgram), rec.Program)
	setCell(cells, cols.Col(header.FieldHours), rec.Hours)
	setCell(cells, cols.Col(header.FieldIssue), string(rec.Issue))
	setCell(cells, cols.Col(header.FieldGroup), rec.Group)
	if rec.CompletionDate.IsZero() {
		setCell(cells, cols.Col(header.FieldCompletion), rec.CompletionRaw)
	} else {
		setCell(cells, cols.Col(header.FieldCompletion), normalize.FormatMDY(rec.CompletionDate))
	}
	if rec.Reported {
		setCell(cells, cols.Col(header.FieldReported), "TRUE")
	} else {
		setCell(cells, cols.Col(header.FieldReported), "")
	}
	setCell(cells, cols.Col(header.FieldReportedAt), normalize.FormatMDY(rec.ReportedAt))
}

func (d *masterData) flush(tab sheet.Table) error {
	rows := make([][]string, 0, len(d.rows))
	for _, r := range d.rows {
		renderAttendee(r.cells, d.cols, r.rec)
		rows = append(rows, r.cells)
	}
	return tab.WriteBody(rows)
}

// MasterRecords parses the Master table into records without mutating
// it; the fan-out reads Master through this.
func MasterRecords(tab sheet.Table) ([]model.AttendeeRecord, error) {
	d, err := loadMaster(tab)
	if err != nil {
		return nil, err
	}
	recs := make([]model.AttendeeRecord, 0, len(d.rows))
	for _, r := range d.rows {
		recs = append(recs, r.rec)
	}
	return recs, nil
}

type rosterData struct {
	header  []string
	cols    header.Mapping
	entries []model.RosterEntry
}

func loadRoster(tab sheet.Table) (*rosterData, error) {
	hdr, body, err := tab.ReadAll()
	if err != nil {
		return nil, err
	}
	cols := header.Map(hdr, header.Roster)
	if err := cols.Require(tab.Name(), header.FieldFirstName, header.FieldLastName); err != nil {
		return nil, err
	}
	if !cols.Has(header.FieldPTIN) && !cols.Has(header.FieldEmail) {
		return nil, cols.Require(tab.Name(), header.FieldPTIN, header.FieldEmail)
	}
	d := &rosterData{header: hdr, cols: cols}
	for _, cells := range body {
		d.entries = append(d.entries, model.RosterEntry{
			FirstName: cell(cells, cols.Col(header.FieldFirstName)),
			LastName:  cell(cells, cols.Col(header.FieldLastName)),
			PTIN:      normalize.PTIN(cell(cells, cols.Col(header.FieldPTIN))),
			Email:     normalize.Email(cell(cells, cols.Col(header.FieldEmail))),
			Group:     cell(cells, cols.Col(header.FieldGroup)),
			Valid:     normalize.ParseBool(cell(cells, cols.Col(header.FieldValid))),
		})
	}
	return d, nil
}

func (d *rosterData) flush(tab sheet.Table) error {
	rows := make([][]string, 0, len(d.entries))
	for _, e := range d.entries {
		cells := make([]string, len(d.header))
		setCell(cells, d.cols.Col(header.FieldFirstName), e.FirstName)
		setCell(cells, d.cols.Col(header.FieldLastName), e.LastName)
		setCell(cells, d.cols.Col(header.FieldPTIN), e.PTIN)
		setCell(cells, d.cols.Col(header.FieldEmail), e.Email)
		setCell(cells, d.cols.Col(header.FieldGroup), e.Group)
		if e.Valid {
			setCell(cells, d.cols.Col(header.FieldValid), "TRUE")
		}
		rows = append(rows, cells)
	}
	return tab.WriteBody(rows)
}

type ledgerData struct {
	header  []string
	cols    header.Mapping
	entries []model.LedgerEntry
}

func loadLedger(tab sheet.Table) (*ledgerData, error) {
	hdr, body, err := tab.ReadAll()
	if err != nil {
		return nil, err
	}
	cols := header.Map(hdr, header.Ledger)
	if err := cols.Require(tab.Name(),
		header.FieldFirstName, header.FieldLastName, header.FieldPTIN,
		header.FieldProgram, header.FieldDateReported,
	); err != nil {
		return nil, err
	}
	d := &ledgerData{header: hdr, cols: cols}
	for _, cells := range body {
		e := model.LedgerEntry{
			FirstName: cell(cells, cols.Col(header.FieldFirstName)),
			LastName:  cell(cells, cols.Col(header.FieldLastName)),
			PTIN:      normalize.PTIN(cell(cells, cols.Col(header.FieldPTIN))),
			Program:   normalize.Program(cell(cells, cols.Col(header.FieldProgram))),
			Hours:     cell(cells, cols.Col(header.FieldHours)),
			Email:     normalize.Email(cell(cells, cols.Col(header.FieldEmail))),
		}
		if d0, ok := normalize.ParseDate(cell(cells, cols.Col(header.FieldCompletion))); ok {
			e.CompletionDate = d0
		}
		if d0, ok := normalize.ParseDate(cell(cells, cols.Col(header.FieldDateReported))); ok {
			e.DateReported = d0
		}
		d.entries = append(d.entries, e)
	}
	return d, nil
}

func (d *ledgerData) renderEntry(e model.LedgerEntry) []string {
	cells := make([]string, len(d.header))
	setCell(cells, d.cols.Col(header.FieldFirstName), e.FirstName)
	setCell(cells, d.cols.Col(header.FieldLastName), e.LastName)
	setCell(cells, d.cols.Col(header.FieldPTIN), e.PTIN)
	setCell(cells, d.cols.Col(header.FieldProgram), e.Program)
	setCell(cells, d.cols.Col(header.FieldHours), e.Hours)
	setCell(cells, d.cols.Col(header.FieldEmail), e.Email)
	setCell(cells, d.cols.Col(header.FieldCompletion), normalize.FormatMDY(e.CompletionDate))
	setCell(cells, d.cols.Col(header.FieldDateReported), normalize.FormatMDY(e.DateReported))
	return cells
}

func (d *ledgerData) flush(tab sheet.Table) error {
	rows := make([][]string, 0, len(d.entries))
	for _, e := range d.entries {
		rows = append(rows, d.renderEntry(e))
	}
	return tab.WriteBody(rows)
}

type cleanData struct {
	header []string
	cols   header.Mapping
	rows   []*masterRow
}

func loadClean(tab sheet.Table) (*cleanData, error) {
	hdr, body, err := tab.ReadAll()
	if err != nil {
		return nil, err
	}
	cols := header.Map(hdr, header.Clean)
	if err := cols.Require(tab.Name(),
		header.FieldFirstName, header.FieldLastName, header.FieldPTIN,
		header.FieldEmail, header.FieldProgram,
	); err != nil {
		return nil, err
	}
	d := &cleanData{header: hdr, cols: cols}
	for _, cells := range body {
		d.rows = append(d.rows, &masterRow{cells: cells, rec: parseAttendee(cells, cols)})
	}
	return d, nil
}
