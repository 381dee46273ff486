// Package export serializes the Clean table to a standalone upload
// workbook.
package export

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/header"
	"github.com/irscelearn/ce-reporter/internal/sheet"
)

// CleanUpload writes the Clean table to a new xlsx file in dir, named by
// the current date (MMDDYYYY.xlsx). The Email and Reporting Issue?
// columns are dropped; the reporting target accepts neither. Returns the
// written path.
func CleanUpload(clean sheet.Table, dir string, now time.Time) (string, error) {
	hdr, body, err := clean.ReadAll()
	if err != nil {
		return "", err
	}

	cols := header.Map(hdr, header.Clean)
	drop := map[int]bool{}
	if i := cols.Col(header.FieldEmail); i >= 0 {
		drop[i] = true
	}
	if i := cols.Col(header.FieldIssue); i >= 0 {
		drop[i] = true
	}

	outHeader := filterCells(hdr, drop)
	path := filepath.Join(dir, now.Format("01022006")+".xlsx")
	wb := sheet.NewWorkbook(path)
	tab, err := wb.AddTable("Upload", outHeader)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(body))
	for _, cells := range body {
		rows = append(rows, filterCells(cells, drop))
	}
	if err := tab.Append(rows); err != nil {
		return "", err
	}
	if err := wb.Save(); err != nil {
		return "", eris.Wrap(err, "export: save upload workbook")
	}
	zap.L().Info("clean upload exported", zap.String("path", path), zap.Int("rows", len(rows)))
	return path, nil
}

func filterCells(cells []string, drop map[int]bool) []string {
	out := make([]string, 0, len(cells))
	for i, c := range cells {
		if drop[i] {
			continue
		}
		out = append(out, c)
	}
	return out
}
