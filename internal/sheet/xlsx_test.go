package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkbookRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "book.xlsx")

	wb := NewWorkbook(path)
	tab, err := wb.AddTable("Master", []string{"First", "Last", "PTIN"})
	require.NoError(t, err)
	require.NoError(t, tab.Append([][]string{
		{"Jane", "Doe", "P01234567"},
		{"Sam", "Poe"},
	}))
	require.NoError(t, wb.Save())

	reopened, err := OpenWorkbook(path)
	require.NoError(t, err)
	tab2, err := reopened.Table("Master")
	require.NoError(t, err)

	header, rows, err := tab2.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Last", "PTIN"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Jane", "Doe", "P01234567"}, rows[0])
	assert.Equal(t, []string{"Sam", "Poe", ""}, rows[1], "short rows pad to header width")
}

func TestWorkbookWriteBodyKeepsHeader(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "book.xlsx")

	wb := NewWorkbook(path)
	tab, err := wb.AddTable("Clean", []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, tab.Append([][]string{{"1", "2"}, {"3", "4"}}))

	require.NoError(t, tab.WriteBody([][]string{{"x", "y"}}))

	header, rows, err := tab.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"x", "y"}, rows[0])

	// Clearing entirely leaves just the header.
	require.NoError(t, tab.WriteBody(nil))
	_, rows, err = tab.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWorkbookMissingSheet(t *testing.T) {
	t.Parallel()
	wb := NewWorkbook(filepath.Join(t.TempDir(), "book.xlsx"))
	_, err := wb.Table("Nope")
	assert.Error(t, err)

	_, err = wb.First()
	assert.Error(t, err, "empty workbook has no first sheet")

	_, err = wb.AddTable("Only", []string{"H"})
	require.NoError(t, err)
	first, err := wb.First()
	require.NoError(t, err)
	assert.Equal(t, "Only", first.Name())
}

func TestMemTable(t *testing.T) {
	t.Parallel()
	tab := NewMemTable("T", []string{"A", "B", "C"}, [][]string{{"1"}})

	_, rows, err := tab.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "", ""}, rows[0])

	// ReadAll returns copies, not aliases.
	rows[0][0] = "mutated"
	_, rows2, err := tab.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "1", rows2[0][0])
}
