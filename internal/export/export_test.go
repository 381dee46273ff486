package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irscelearn/ce-reporter/internal/sheet"
)

func TestCleanUpload(t *testing.T) {
	t.Parallel()

	clean := sheet.NewMemTable("Clean", []string{
		"Attendee First Name", "Attendee Last Name", "Attendee PTIN", "Email",
		"Program Number", "CE Hours Awarded", "Program Completion Date",
		"Reporting Issue?",
	}, [][]string{
		{"Jane", "Doe", "P01234567", "jane@x.com", "ABC", "2", "06/14/2024", ""},
	})

	dir := t.TempDir()
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.Local)
	path, err := CleanUpload(clean, dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "06152024.xlsx"), path)

	wb, err := sheet.OpenWorkbook(path)
	require.NoError(t, err)
	tab, err := wb.First()
	require.NoError(t, err)

	header, rows, err := tab.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Attendee First Name", "Attendee Last Name", "Attendee PTIN",
		"Program Number", "CE Hours Awarded", "Program Completion Date",
	}, header, "email and issue columns are dropped")
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Jane", "Doe", "P01234567", "ABC", "2", "06/14/2024"}, rows[0])
}
