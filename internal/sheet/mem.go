package sheet

// MemTable is an in-memory Table for tests and for callers that stage
// writes before flushing to a workbook.
type MemTable struct {
	name   string
	header []string
	body   [][]string
}

// NewMemTable builds a MemTable with the given header and body rows.
func NewMemTable(name string, header []string, body [][]string) *MemTable {
	t := &MemTable{name: name, header: append([]string(nil), header...)}
	for _, row := range body {
		t.body = append(t.body, PadRow(append([]string(nil), row...), len(header)))
	}
	return t
}

func (t *MemTable) Name() string { return t.name }

func (t *MemTable) ReadAll() ([]string, [][]string, error) {
	header := append([]string(nil), t.header...)
	body := make([][]string, len(t.body))
	for i, row := range t.body {
		body[i] = append([]string(nil), row...)
	}
	return header, body, nil
}

func (t *MemTable) WriteBody(rows [][]string) error {
	t.body = nil
	return t.Append(rows)
}

func (t *MemTable) Append(rows [][]string) error {
	for _, row := range rows {
		t.body = append(t.body, PadRow(append([]string(nil), row...), len(t.header)))
	}
	return nil
}
