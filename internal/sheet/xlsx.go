package sheet

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Workbook wraps one xlsx file. Tables mutate the in-memory file; Save
// persists every pending change at once.
type Workbook struct {
	path string
	file *xlsx.File
}

// OpenWorkbook opens an existing xlsx workbook.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sheet: open workbook %s", path)
	}
	return &Workbook{path: path, file: f}, nil
}

// NewWorkbook creates a workbook in memory; Save writes it to path.
func NewWorkbook(path string) *Workbook {
	return &Workbook{path: path, file: xlsx.NewFile()}
}

// Table returns the named sheet as a Table.
func (w *Workbook) Table(name string) (Table, error) {
	s, ok := w.file.Sheet[name]
	if !ok {
		return nil, eris.Errorf("sheet: workbook %s has no sheet %q", w.path, name)
	}
	return &xlsxTable{wb: w, sheet: s}, nil
}

// AddTable creates a new sheet with the given header row.
func (w *Workbook) AddTable(name string, headerRow []string) (Table, error) {
	s, err := w.file.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "sheet: add sheet %q", name)
	}
	row := s.AddRow()
	for _, h := range headerRow {
		row.AddCell().SetString(h)
	}
	return &xlsxTable{wb: w, sheet: s}, nil
}

// First returns the workbook's first sheet, the convention for group
// destination workbooks.
func (w *Workbook) First() (Table, error) {
	if len(w.file.Sheets) == 0 {
		return nil, eris.Errorf("sheet: workbook %s has no sheets", w.path)
	}
	return &xlsxTable{wb: w, sheet: w.file.Sheets[0]}, nil
}

// Save writes the workbook back to disk.
func (w *Workbook) Save() error {
	return eris.Wrapf(w.file.Save(w.path), "sheet: save workbook %s", w.path)
}

// Path returns the backing file path.
func (w *Workbook) Path() string { return w.path }

type xlsxTable struct {
	wb    *Workbook
	sheet *xlsx.Sheet
}

func (t *xlsxTable) Name() string { return t.sheet.Name }

func (t *xlsxTable) ReadAll() ([]string, [][]string, error) {
	if len(t.sheet.Rows) == 0 {
		return nil, nil, eris.Errorf("sheet: %q has no header row", t.sheet.Name)
	}
	header := rowToStrings(t.sheet.Rows[0])
	body := make([][]string, 0, len(t.sheet.Rows)-1)
	for _, row := range t.sheet.Rows[1:] {
		body = append(body, PadRow(rowToStrings(row), len(header)))
	}
	return header, body, nil
}

func (t *xlsxTable) WriteBody(rows [][]string) error {
	if len(t.sheet.Rows) == 0 {
		return eris.Errorf("sheet: %q has no header row", t.sheet.Name)
	}
	t.sheet.Rows = t.sheet.Rows[:1]
	t.sheet.MaxRow = 1
	return t.Append(rows)
}

func (t *xlsxTable) Append(rows [][]string) error {
	for _, row := range rows {
		r := t.sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}
	return nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
