// Package header resolves a table's first-row labels to semantic field
// indices. Real workbooks drift: labels get retyped, reordered and
// re-capitalized, so every schema is an ordered alias list and matching
// is case- and whitespace-insensitive.
package header

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Field names a semantic column independent of its label or position.
type Field string

const (
	FieldFirstName    Field = "first name"
	FieldLastName     Field = "last name"
	FieldPTIN         Field = "ptin"
	FieldEmail        Field = "email"
	FieldProgram      Field = "program number"
	FieldProgramName  Field = "program name"
	FieldHours        Field = "ce hours"
	FieldCompletion   Field = "completion date"
	FieldGroup        Field = "group"
	FieldIssue        Field = "reporting issue"
	FieldReported     Field = "reported"
	FieldReportedAt   Field = "reported at"
	FieldLastUpdated  Field = "last updated"
	FieldValid        Field = "valid"
	FieldDateReported Field = "date reported"
	FieldGroupID      Field = "group id"
	FieldGroupName    Field = "group name"
	FieldLocation     Field = "location"
)

// Entry pairs a field with its accepted labels, most canonical first.
type Entry struct {
	Field   Field
	Aliases []string
}

// Spec is the ordered alias table for one table schema.
type Spec []Entry

// Mapping holds the resolved column index per field; missing fields map
// to -1.
type Mapping map[Field]int

// Col returns the column index for f, or -1 when unmapped.
func (m Mapping) Col(f Field) int {
	if i, ok := m[f]; ok {
		return i
	}
	return -1
}

// Has reports whether f resolved to a column.
func (m Mapping) Has(f Field) bool { return m.Col(f) >= 0 }

// Require returns a configuration error naming the table and every
// missing field, or nil when all are present.
func (m Mapping) Require(table string, fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if !m.Has(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return eris.Errorf("header: table %q is missing required columns: %s", table, strings.Join(missing, ", "))
}

// Map resolves headerRow against spec. First alias match wins; unmatched
// fields are set to -1. Map never fails: callers decide which absences
// are fatal via Require.
func Map(headerRow []string, spec Spec) Mapping {
	norm := make([]string, len(headerRow))
	for i, h := range headerRow {
		norm[i] = Normalize(h)
	}
	out := make(Mapping, len(spec))
	for _, e := range spec {
		out[e.Field] = -1
		for _, alias := range e.Aliases {
			if j := indexOf(norm, Normalize(alias)); j >= 0 {
				out[e.Field] = j
				break
			}
		}
	}
	return out
}

// Normalize canonicalizes a header label: BOM stripped, whitespace
// collapsed, lowercased.
func Normalize(label string) string {
	s := strings.ReplaceAll(label, "\uFEFF", "")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func indexOf(haystack []string, needle string) int {
	for i, h := range haystack {
		if h == needle {
			return i
		}
	}
	return -1
}
