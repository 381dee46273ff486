package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPTIN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "P01234567", "P01234567"},
		{"lowercase with letter-O typo", "po1234567", "P01234567"},
		{"uppercase letter-O typo", "PO1234567", "P01234567"},
		{"bare digits", "1234567", "P01234567"},
		{"short digits left-padded", "P042", "P00000042"},
		{"digits with separators", "p0 123-4567", "P01234567"},
		{"hyphen after prefix", "P0-1234567", "P01234567"},
		{"label before value", "PTIN: P01234567", "P01234567"},
		{"long digit run keeps last seven", "P123456789", "P01234567"},
		{"all zeros", "0000000", "P00000000"},
		{"no digits", "not a ptin", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PTIN(tt.raw))
		})
	}
}

func TestPTINIdempotent(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"po1234567", "1234567", "P042", "garbage 99", "", "P01234567", "p0 123-4567", "P0-1234567"} {
		once := PTIN(raw)
		assert.Equal(t, once, PTIN(once), "normalizing %q twice drifted", raw)
	}
}

func TestValidPTIN(t *testing.T) {
	t.Parallel()
	assert.True(t, ValidPTIN("P01234567"))
	assert.True(t, ValidPTIN(AllZeroPTIN))
	assert.False(t, ValidPTIN("P1234567"))
	assert.False(t, ValidPTIN("p01234567"))
	assert.False(t, ValidPTIN(""))
}

func TestProgram(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ABC-123", Program("  abc-123  "))
	assert.Equal(t, "XY12", Program("x y 1 2"))
	assert.Equal(t, "", Program("   "))
}

func TestEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a@b.com", Email("  A@B.COM "))
	assert.Equal(t, "", Email(""))
}

func TestNamesMatch(t *testing.T) {
	t.Parallel()
	assert.True(t, NamesMatch("Jane ", " doe", "JANE", "Doe"))
	assert.True(t, NamesMatch("Mary  Ann", "Smith", "mary ann", "smith"))
	assert.False(t, NamesMatch("Jane", "Doe", "Jane", "Doh"))
}

func TestParseBool(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"TRUE", "true", "Yes", "y", "1", " yes "} {
		assert.True(t, ParseBool(s), s)
	}
	for _, s := range []string{"", "FALSE", "no", "0", "maybe"} {
		assert.False(t, ParseBool(s), s)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"1/2/2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local), true},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local), true},
		{"Jan 2, 2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local), true},
		{"1/2/2024 15:04:05", time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local), true},
		// 45292 is 2024-01-01 as a spreadsheet serial.
		{"45292", time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), true},
		{"12", time.Time{}, false}, // small numbers are not dates
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.raw)
		require.Equal(t, tt.ok, ok, tt.raw)
		if ok {
			assert.Equal(t, tt.want, got, tt.raw)
		}
	}
}

func TestClampToWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.Local)
	yesterday := time.Date(2024, 6, 14, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		d    time.Time
		want time.Time
	}{
		{"today passes", time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local), time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local)},
		{"four days ago passes", time.Date(2024, 6, 11, 0, 0, 0, 0, time.Local), time.Date(2024, 6, 11, 0, 0, 0, 0, time.Local)},
		{"five days ago clamps", time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local), yesterday},
		{"future clamps", time.Date(2099, 1, 1, 0, 0, 0, 0, time.Local), yesterday},
		{"tomorrow clamps", time.Date(2024, 6, 16, 0, 0, 0, 0, time.Local), yesterday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClampToWindow(tt.d, now))
		})
	}
}

func TestCompletionForUpload(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.Local)

	got, ok := CompletionForUpload("6/14/2024", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.Local), got)

	got, ok = CompletionForUpload("1/1/2099", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.Local), got, "future date coerces to yesterday")

	_, ok = CompletionForUpload("bogus", now)
	assert.False(t, ok)
}

func TestFormatMDY(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "01/02/2024", FormatMDY(time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "", FormatMDY(time.Time{}))
}
