// Package fanout distributes Master rows to the externally-owned group
// destination workbooks listed in the group catalog. Each destination
// carries its own header layout; rows are re-mapped per destination,
// deduplicated, and the body is rewritten wholesale with a trailing
// summary block.
package fanout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/irscelearn/ce-reporter/internal/dedupe"
	"github.com/irscelearn/ce-reporter/internal/engine"
	"github.com/irscelearn/ce-reporter/internal/header"
	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/normalize"
	"github.com/irscelearn/ce-reporter/internal/sheet"
)

// Destination is one group's workbook: a target table plus a save.
type Destination interface {
	Target() (sheet.Table, error)
	Save() error
}

// Opener resolves a catalog location to a Destination.
type Opener func(location string) (Destination, error)

// WorkbookOpener opens xlsx destinations. targetTab selects the sheet to
// write; empty means the first sheet.
func WorkbookOpener(targetTab string) Opener {
	return func(location string) (Destination, error) {
		wb, err := sheet.OpenWorkbook(location)
		if err != nil {
			return nil, err
		}
		return &workbookDest{wb: wb, tab: targetTab}, nil
	}
}

type workbookDest struct {
	wb  *sheet.Workbook
	tab string
}

func (d *workbookDest) Target() (sheet.Table, error) {
	if d.tab == "" {
		return d.wb.First()
	}
	return d.wb.Table(d.tab)
}

func (d *workbookDest) Save() error { return d.wb.Save() }

// Syncer runs the fan-out.
type Syncer struct {
	master  sheet.Table
	catalog sheet.Table
	courses sheet.Table // nil when no course catalog exists
	open    Opener
	now     func() time.Time
	workers int
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// WithWorkers caps concurrent destination syncs.
func WithWorkers(n int) Option {
	return func(s *Syncer) { s.workers = n }
}

// New builds a Syncer. courses may be nil.
func New(master, catalog, courses sheet.Table, open Opener, opts ...Option) *Syncer {
	s := &Syncer{
		master: master, catalog: catalog, courses: courses,
		open: open, now: time.Now, workers: 4,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Result summarizes one fan-out run.
type Result struct {
	Groups  int
	Synced  int
	Skipped int
	Failed  []string // group names that could not be synced
}

// SyncAll fans Master out to every catalog destination. Destinations are
// distinct files and sync concurrently; a failed destination is logged
// and counted, never fatal. Groups with no matching rows are skipped.
func (s *Syncer) SyncAll(ctx context.Context) (*Result, error) {
	groups, err := s.readCatalog()
	if err != nil {
		return nil, err
	}
	courseNames, err := s.readCourses()
	if err != nil {
		return nil, err
	}
	records, err := engine.MasterRecords(s.master)
	if err != nil {
		return nil, err
	}

	byGroup := bucketByGroup(records, groups)

	res := &Result{Groups: len(groups)}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, grp := range groups {
		grp := grp
		rows := byGroup[grp.ID]
		if len(rows) == 0 {
			mu.Lock()
			res.Skipped++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.syncGroup(grp, rows, courseNames); err != nil {
				zap.L().Warn("group sync failed",
					zap.String("group", grp.Name), zap.String("location", grp.Location),
					zap.Error(err))
				mu.Lock()
				res.Failed = append(res.Failed, grp.Name)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			res.Synced++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	zap.L().Info("group fan-out finished",
		zap.Int("groups", res.Groups), zap.Int("synced", res.Synced),
		zap.Int("skipped", res.Skipped), zap.Int("failed", len(res.Failed)))
	return res, nil
}

// bucketByGroup assigns each record to at most one group: a group-ID
// match wins over a group-name match.
func bucketByGroup(records []model.AttendeeRecord, groups []model.Group) map[string][]model.AttendeeRecord {
	byID := make(map[string]string)   // folded id -> group id
	byName := make(map[string]string) // folded name -> group id
	for _, g := range groups {
		if g.ID != "" {
			byID[fold(g.ID)] = g.ID
		}
		if g.Name != "" {
			byName[fold(g.Name)] = g.ID
		}
	}
	out := make(map[string][]model.AttendeeRecord)
	for _, rec := range records {
		tag := fold(rec.Group)
		if tag == "" {
			continue
		}
		id, ok := byID[tag]
		if !ok {
			id, ok = byName[tag]
		}
		if !ok {
			continue
		}
		out[id] = append(out[id], rec)
	}
	return out
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *Syncer) syncGroup(grp model.Group, rows []model.AttendeeRecord, courseNames map[string]string) error {
	if grp.Location == "" {
		return eris.Errorf("fanout: group %q has no destination location", grp.Name)
	}
	dest, err := s.open(grp.Location)
	if err != nil {
		return err
	}
	tab, err := dest.Target()
	if err != nil {
		return err
	}
	hdr, _, err := tab.ReadAll()
	if err != nil {
		return err
	}
	cols := header.Map(hdr, header.GroupDest)
	if err := cols.Require(tab.Name(), header.FieldFirstName, header.FieldLastName); err != nil {
		return err
	}
	if !cols.Has(header.FieldPTIN) && !cols.Has(header.FieldEmail) {
		return eris.Errorf("fanout: table %q has neither a PTIN nor an email column", tab.Name())
	}
	if !cols.Has(header.FieldProgram) && !cols.Has(header.FieldProgramName) {
		return eris.Errorf("fanout: table %q has no program number or program name column", tab.Name())
	}

	rows = dedupe.Dedupe(rows, dedupe.Options[model.AttendeeRecord]{
		Keys: []func(model.AttendeeRecord) string{
			dedupe.PTINProgram, dedupe.EmailProgram, dedupe.NameProgram,
		},
		Recency: dedupe.RecordRecency,
		Unkeyed: dedupe.Keep,
	})

	body := make([][]string, 0, len(rows)+8)
	for _, rec := range rows {
		cells := make([]string, len(hdr))
		set := func(f header.Field, v string) {
			if i := cols.Col(f); i >= 0 {
				cells[i] = v
			}
		}
		set(header.FieldFirstName, rec.FirstName)
		set(header.FieldLastName, rec.LastName)
		set(header.FieldPTIN, rec.PTIN)
		set(header.FieldEmail, rec.Email)
		set(header.FieldProgram, rec.Program)
		set(header.FieldProgramName, courseNames[rec.Program])
		set(header.FieldHours, rec.Hours)
		if rec.CompletionDate.IsZero() {
			set(header.FieldCompletion, rec.CompletionRaw)
		} else {
			set(header.FieldCompletion, normalize.FormatMDY(rec.CompletionDate))
		}
		set(header.FieldIssue, string(rec.Issue))
		if rec.Reported {
			set(header.FieldReported, "TRUE")
		}
		set(header.FieldReportedAt, normalize.FormatMDY(rec.ReportedAt))
		body = append(body, cells)
	}

	body = append(body, s.summaryBlock(rows)...)
	if err := tab.WriteBody(body); err != nil {
		return err
	}
	if err := dest.Save(); err != nil {
		return err
	}
	zap.L().Info("group synced",
		zap.String("group", grp.Name), zap.Int("rows", len(rows)))
	return nil
}

// summaryBlock renders the roll-up that sits two blank rows below the
// data on every destination.
func (s *Syncer) summaryBlock(rows []model.AttendeeRecord) [][]string {
	var hours float64
	students := make(map[string]bool)
	withIssues, reported := 0, 0
	for _, rec := range rows {
		if h, err := strconv.ParseFloat(rec.Hours, 64); err == nil && rec.Reported {
			hours += h
		}
		key := rec.PTIN
		if key == "" {
			key = rec.Email
		}
		if key != "" {
			students[key] = true
		}
		if !rec.Issue.Good() {
			withIssues++
		}
		if rec.Reported {
			reported++
		}
	}
	return [][]string{
		{},
		{},
		{"Total CE Hours Reported", strconv.FormatFloat(hours, 'f', -1, 64)},
		{"Distinct Students", strconv.Itoa(len(students))},
		{"Students With Issues", strconv.Itoa(withIssues)},
		{"Reported Students", strconv.Itoa(reported)},
		{"Last Updated", s.now().Format("01/02/2006 15:04")},
	}
}

func (s *Syncer) readCatalog() ([]model.Group, error) {
	hdr, body, err := s.catalog.ReadAll()
	if err != nil {
		return nil, err
	}
	cols := header.Map(hdr, header.GroupCatalog)
	if err := cols.Require(s.catalog.Name(), header.FieldGroupName, header.FieldLocation); err != nil {
		return nil, err
	}
	var groups []model.Group
	for i, cells := range body {
		g := model.Group{
			ID:       strings.TrimSpace(valueAt(cells, cols.Col(header.FieldGroupID))),
			Name:     strings.TrimSpace(valueAt(cells, cols.Col(header.FieldGroupName))),
			Location: strings.TrimSpace(valueAt(cells, cols.Col(header.FieldLocation))),
		}
		if g.Name == "" && g.ID == "" {
			continue
		}
		if g.ID == "" {
			// Catalogs predating the ID column fall back to the name as
			// the identifier.
			g.ID = fmt.Sprintf("name:%d:%s", i, fold(g.Name))
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *Syncer) readCourses() (map[string]string, error) {
	if s.courses == nil {
		return map[string]string{}, nil
	}
	hdr, body, err := s.courses.ReadAll()
	if err != nil {
		return nil, err
	}
	cols := header.Map(hdr, header.Courses)
	if err := cols.Require(s.courses.Name(), header.FieldProgram, header.FieldProgramName); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(body))
	for _, cells := range body {
		prog := normalize.Program(valueAt(cells, cols.Col(header.FieldProgram)))
		name := strings.TrimSpace(valueAt(cells, cols.Col(header.FieldProgramName)))
		if prog != "" && name != "" {
			out[prog] = name
		}
	}
	return out, nil
}

func valueAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}
