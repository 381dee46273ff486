package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Parallel()

	row := []string{"\uFEFFAttendee First Name", "ATTENDEE  LAST NAME", "ptin", "Email", "Program Number"}
	m := Map(row, Master)

	assert.Equal(t, 0, m.Col(FieldFirstName), "BOM is stripped")
	assert.Equal(t, 1, m.Col(FieldLastName), "case and whitespace insensitive")
	assert.Equal(t, 2, m.Col(FieldPTIN), "later alias matches")
	assert.Equal(t, 3, m.Col(FieldEmail))
	assert.Equal(t, 4, m.Col(FieldProgram))
	assert.Equal(t, -1, m.Col(FieldIssue))
	assert.False(t, m.Has(FieldReported))
}

func TestMapFirstAliasWins(t *testing.T) {
	t.Parallel()

	// Both aliases present: the more canonical label takes the column.
	row := []string{"PTIN", "Attendee PTIN"}
	m := Map(row, Master)
	assert.Equal(t, 1, m.Col(FieldPTIN))
}

func TestRequire(t *testing.T) {
	t.Parallel()

	m := Map([]string{"Attendee First Name"}, Master)
	require.NoError(t, m.Require("Master", FieldFirstName))

	err := m.Require("Master", FieldFirstName, FieldPTIN, FieldEmail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Master"`)
	assert.Contains(t, err.Error(), "ptin")
	assert.Contains(t, err.Error(), "email")
	assert.NotContains(t, err.Error(), "first name,")
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "reporting issue?", Normalize("  Reporting   Issue? "))
	assert.Equal(t, "email", Normalize("\uFEFFEmail"))
}
