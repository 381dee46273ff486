// Package sheet abstracts the tabular storage the reconciliation engine
// runs against: a header row (row 1, never touched by the core) plus a
// data body addressed by header text, not position.
package sheet

// Table is one table with an immutable header row. Reads are
// snapshot-style: the whole body at once. The engine assumes a single
// writer per table per invocation; the substrate offers no locking.
type Table interface {
	Name() string
	// ReadAll returns the header row and the full data body. Body rows
	// are padded to the header width.
	ReadAll() (header []string, body [][]string, err error)
	// WriteBody clears the data body and writes rows, leaving the
	// header row untouched.
	WriteBody(rows [][]string) error
	// Append adds rows after the current last data row.
	Append(rows [][]string) error
}

// PadRow returns row extended with empty cells to width.
func PadRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
