// Package normalize holds the identity canonicalization rules shared by
// every reconciliation pass. All functions are total: bad input yields an
// empty or zero value, never an error.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	ptinRe       = regexp.MustCompile(`^P0\d{7}$`)
	ptinPrefixRe = regexp.MustCompile(`^P0?(\d{0,7})`)
	digitsRe     = regexp.MustCompile(`\d+`)
)

// PTIN canonicalizes a raw PTIN to P0#######. The common "PO" letter-O
// typo is corrected before anything else. If the value cannot be rebuilt
// from a P-prefixed digit run, the last seven digits found anywhere in
// the input are used; no digits at all yields "". Idempotent.
func PTIN(raw string) string {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "PO") {
		v = "P0" + v[2:]
	}
	// Strip separators before the rebuild so "P0-1234567" keeps its
	// digit run attached to the prefix. The rebuild only applies to
	// values that led with P before stripping; stripping can pull a
	// stray P to the front of arbitrary text.
	hadPrefix := strings.HasPrefix(v, "P")
	v = keepPTINChars(v)
	if m := ptinPrefixRe.FindStringSubmatch(v); hadPrefix && m != nil {
		rebuilt := "P0" + leftPadZero(m[1], 7)
		// An all-zero rebuild from input that still holds real digits
		// missed them; leave it for the digit scavenge below.
		if rebuilt != AllZeroPTIN || !hasNonZeroDigit(v) {
			v = rebuilt
		}
	}
	if ptinRe.MatchString(v) {
		return v
	}
	digits := strings.Join(digitsRe.FindAllString(raw, -1), "")
	if digits == "" {
		return ""
	}
	if len(digits) > 7 {
		digits = digits[len(digits)-7:]
	}
	return "P0" + leftPadZero(digits, 7)
}

// ValidPTIN reports whether s is already in canonical P0####### form.
func ValidPTIN(s string) bool { return ptinRe.MatchString(s) }

// AllZeroPTIN is syntactically valid but semantically invalid: it is what
// a raw digit string of all zeros normalizes to.
const AllZeroPTIN = "P00000000"

// Program canonicalizes a course identifier: uppercase, all whitespace
// stripped.
func Program(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// Email canonicalizes an email address: lowercase, trimmed.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// CollapseSpace trims and collapses internal whitespace runs to a single
// space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NamesMatch compares two first/last name pairs case-insensitively with
// whitespace collapsed.
func NamesMatch(first1, last1, first2, last2 string) bool {
	eq := func(a, b string) bool {
		return strings.EqualFold(CollapseSpace(a), CollapseSpace(b))
	}
	return eq(first1, first2) && eq(last1, last2)
}

// ParseBool accepts the checkbox spellings that show up in sheet cells.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}

var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
}

// excelEpoch is the base of spreadsheet serial dates (1899-12-30 accounts
// for the historical Lotus leap-year bug).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.Local)

// ParseDate parses the date shapes found in sheet cells: common layouts
// and spreadsheet serial numbers. The result is truncated to a local
// calendar date. ok is false when nothing parses.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return dateOnly(t), true
		}
	}
	// Spreadsheet serial. Anything below 20000 (mid-1954) is assumed to
	// be a stray number, not a date.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 {
		t := excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
		return dateOnly(t), true
	}
	return time.Time{}, false
}

// CompletionForUpload applies the reporting window rule to a raw
// completion date: a date in the future, or more than four days in the
// past relative to now, is coerced to yesterday. ok is false when the
// input does not parse; the caller keeps the original cell in that case.
func CompletionForUpload(raw string, now time.Time) (time.Time, bool) {
	d, ok := ParseDate(raw)
	if !ok {
		return time.Time{}, false
	}
	return ClampToWindow(d, now), true
}

// ClampToWindow applies the upload-window correction to an already-parsed
// date.
func ClampToWindow(d, now time.Time) time.Time {
	today := dateOnly(now)
	// Midnight-to-midnight deltas are within an hour of a whole day even
	// across DST shifts, so rounding recovers the calendar difference.
	diffDays := int(math.Round(today.Sub(dateOnly(d)).Hours() / 24))
	if diffDays > 4 || diffDays < 0 {
		return today.AddDate(0, 0, -1)
	}
	return dateOnly(d)
}

// FormatMDY renders a date as mm/dd/yyyy, the format the reporting target
// expects. Zero times render as "".
func FormatMDY(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("01/02/2006")
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func leftPadZero(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func hasNonZeroDigit(s string) bool {
	for _, r := range s {
		if r >= '1' && r <= '9' {
			return true
		}
	}
	return false
}

func keepPTINChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == 'P' || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
