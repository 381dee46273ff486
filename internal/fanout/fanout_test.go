package fanout

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/model"
	"github.com/irscelearn/ce-reporter/internal/sheet"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var fanoutNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)

var masterHeader = []string{
	"Attendee First Name", "Attendee Last Name", "Attendee PTIN", "Email",
	"Program Number", "CE Hours Awarded", "Program Completion Date", "Group",
	"Reporting Issue?", "Reported?", "Reported At", "Last Updated",
}

var destHeader = []string{
	"First Name", "Last Name", "PTIN", "Email",
	"Program Number", "CE Hours", "Completion Date", "Reported?",
}

type memDest struct {
	tab   sheet.Table
	saves int
}

func (d *memDest) Target() (sheet.Table, error) { return d.tab, nil }
func (d *memDest) Save() error                  { d.saves++; return nil }

func memOpener(dests map[string]*memDest) Opener {
	return func(location string) (Destination, error) {
		d, ok := dests[location]
		if !ok {
			return nil, eris.Errorf("no destination at %s", location)
		}
		return d, nil
	}
}

func TestSyncAll(t *testing.T) {
	t.Parallel()

	master := sheet.NewMemTable("Master", masterHeader, [][]string{
		{"Jane", "Doe", "P01234567", "jane@x.com", "ABC", "2", "06/14/2024", "Alpha", "", "TRUE", "06/14/2024", ""},
		{"Sam", "Poe", "P07654321", "sam@x.com", "ABC", "3", "06/13/2024", "g2", "", "", "", ""},
		{"Ann", "Roe", "P00000001", "ann@x.com", "ABC", "1", "06/12/2024", "", "", "", "", ""},
	})
	catalog := sheet.NewMemTable("Group Config", []string{"Group ID", "Group Name", "Spreadsheet URL"}, [][]string{
		{"", "Alpha", "alpha.xlsx"},
		{"G2", "Beta", "beta.xlsx"},
		{"", "Gamma", "gamma.xlsx"},
	})
	courses := sheet.NewMemTable("Courses", []string{"Program Number", "Program Name"}, [][]string{
		{"ABC", "Ethics Update"},
	})

	alpha := &memDest{tab: sheet.NewMemTable("Sheet1", destHeader, nil)}
	beta := &memDest{tab: sheet.NewMemTable("Sheet1", destHeader, nil)}
	dests := map[string]*memDest{"alpha.xlsx": alpha, "beta.xlsx": beta}

	s := New(master, catalog, courses, memOpener(dests),
		WithClock(func() time.Time { return fanoutNow }), WithWorkers(2))
	res, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Groups)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 1, res.Skipped, "gamma has no rows")
	assert.Empty(t, res.Failed)
	assert.Equal(t, 1, alpha.saves)
	assert.Equal(t, 1, beta.saves)

	_, rows, err := alpha.tab.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8, "one data row, two blanks, five summary rows")
	assert.Equal(t, []string{"Jane", "Doe", "P01234567", "jane@x.com", "ABC", "2", "06/14/2024", "TRUE"}, rows[0])
	assert.Equal(t, []string{"", "", "", "", "", "", "", ""}, rows[1])
	assert.Equal(t, "Total CE Hours Reported", rows[3][0])
	assert.Equal(t, "2", rows[3][1])
	assert.Equal(t, "Distinct Students", rows[4][0])
	assert.Equal(t, "1", rows[4][1])
	assert.Equal(t, "Reported Students", rows[6][0])
	assert.Equal(t, "1", rows[6][1])
	assert.Equal(t, "Last Updated", rows[7][0])
	assert.Equal(t, "06/15/2024 12:00", rows[7][1])

	_, rows, err = beta.tab.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Sam", rows[0][0], "group id match is case-insensitive")
	assert.Equal(t, "0", rows[3][1], "unreported hours do not count")
}

func TestSyncAllFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	master := sheet.NewMemTable("Master", masterHeader, [][]string{
		{"Jane", "Doe", "P01234567", "jane@x.com", "ABC", "2", "06/14/2024", "Alpha", "", "", "", ""},
		{"Sam", "Poe", "P07654321", "sam@x.com", "ABC", "3", "06/13/2024", "Beta", "", "", "", ""},
	})
	catalog := sheet.NewMemTable("Group Config", []string{"Group ID", "Group Name", "Spreadsheet URL"}, [][]string{
		{"", "Alpha", "alpha.xlsx"},
		{"", "Beta", "beta.xlsx"},
	})

	// Beta's destination carries none of the identity columns, so it
	// cannot accept rows.
	alpha := &memDest{tab: sheet.NewMemTable("Sheet1", destHeader, nil)}
	beta := &memDest{tab: sheet.NewMemTable("Sheet1", []string{"Notes"}, nil)}
	dests := map[string]*memDest{"alpha.xlsx": alpha, "beta.xlsx": beta}

	s := New(master, catalog, nil, memOpener(dests),
		WithClock(func() time.Time { return fanoutNow }))
	res, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, []string{"Beta"}, res.Failed)
	assert.Equal(t, 1, alpha.saves)
	assert.Zero(t, beta.saves)
}

func TestSyncGroupDedupes(t *testing.T) {
	t.Parallel()

	master := sheet.NewMemTable("Master", masterHeader, [][]string{
		{"Jane", "Doe", "P01234567", "jane@x.com", "ABC", "2", "06/10/2024", "Alpha", "", "", "", ""},
		{"Jane", "Doe", "P01234567", "jane@x.com", "ABC", "4", "06/14/2024", "Alpha", "", "", "", ""},
	})
	catalog := sheet.NewMemTable("Group Config", []string{"Group ID", "Group Name", "Spreadsheet URL"}, [][]string{
		{"", "Alpha", "alpha.xlsx"},
	})

	alpha := &memDest{tab: sheet.NewMemTable("Sheet1", destHeader, nil)}
	s := New(master, catalog, nil, memOpener(map[string]*memDest{"alpha.xlsx": alpha}),
		WithClock(func() time.Time { return fanoutNow }))
	_, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	_, rows, err := alpha.tab.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, "4", rows[0][5], "the most recent completion wins")
}

func TestBucketByGroup(t *testing.T) {
	t.Parallel()

	groups := []model.Group{
		{ID: "Alpha", Name: "One"},
		{ID: "X", Name: "Alpha"},
	}
	records := []model.AttendeeRecord{
		{Email: "a@x.com", Group: "alpha"},
		{Email: "b@x.com", Group: "one"},
		{Email: "c@x.com", Group: "unknown"},
	}

	out := bucketByGroup(records, groups)
	// "alpha" matches group X's name AND group Alpha's ID; the ID wins.
	require.Len(t, out["Alpha"], 2)
	assert.Equal(t, "a@x.com", out["Alpha"][0].Email)
	assert.Equal(t, "b@x.com", out["Alpha"][1].Email)
	assert.Empty(t, out["X"])
}

func TestReadCatalogSynthesizesIDs(t *testing.T) {
	t.Parallel()

	catalog := sheet.NewMemTable("Group Config", []string{"Group Name", "Spreadsheet URL"}, [][]string{
		{"Alpha", "alpha.xlsx"},
		{"", ""},
		{"Beta", "beta.xlsx"},
	})
	s := New(nil, catalog, nil, nil)

	groups, err := s.readCatalog()
	require.NoError(t, err)
	require.Len(t, groups, 2, "blank rows are skipped")
	assert.NotEmpty(t, groups[0].ID)
	assert.NotEqual(t, groups[0].ID, groups[1].ID)
}
