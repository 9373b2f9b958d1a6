package recog

import (
	"sort"
	"strings"
)

// FieldMismatch records one example attribute whose declared expectation
// the resolved fields did not meet.
type FieldMismatch struct {
	Name string
	Want string
	Got  string
}

// ExampleReport is the outcome of replaying one example against the
// fingerprint that carries it.
type ExampleReport struct {
	Example    Example
	Matched    bool
	Fields     Fields
	Mismatches []FieldMismatch
}

// OK reports whether the example matched and every declared expectation
// was met.
func (r ExampleReport) OK() bool {
	return r.Matched && len(r.Mismatches) == 0
}

// FingerprintReport aggregates the example reports of one fingerprint.
type FingerprintReport struct {
	Fingerprint *Fingerprint
	Examples    []ExampleReport
}

// OK reports whether every example of the fingerprint verified cleanly.
func (r FingerprintReport) OK() bool {
	for _, ex := range r.Examples {
		if !ex.OK() {
			return false
		}
	}
	return true
}

// VerifyExamples replays every example attached to f through its own
// pattern. Besides requiring the pattern to match, attributes declared on
// an example are treated as expected field values and compared against the
// resolved fields. Attribute names starting with an underscore are example
// metadata, not expectations. This is an integrity check on the database,
// not part of the matching path.
func VerifyExamples(f *Fingerprint) []ExampleReport {
	reports := make([]ExampleReport, 0, len(f.Examples()))
	for _, ex := range f.Examples() {
		report := ExampleReport{Example: ex}
		report.Fields, report.Matched = f.Match(ex.Text)
		if report.Matched {
			report.Mismatches = compareAttributes(ex.Attributes, report.Fields)
		}
		reports = append(reports, report)
	}
	return reports
}

// VerifyDatabase runs VerifyExamples over every fingerprint in db,
// returning one report per fingerprint in database order.
func VerifyDatabase(db *Database) []FingerprintReport {
	reports := make([]FingerprintReport, 0, db.Len())
	for _, f := range db.Fingerprints() {
		reports = append(reports, FingerprintReport{
			Fingerprint: f,
			Examples:    VerifyExamples(f),
		})
	}
	return reports
}

func compareAttributes(attrs map[string]string, fields Fields) []FieldMismatch {
	var mismatches []FieldMismatch
	for name, want := range attrs {
		if strings.HasPrefix(name, "_") {
			continue
		}
		if got, ok := fields[name]; !ok || got != want {
			mismatches = append(mismatches, FieldMismatch{Name: name, Want: want, Got: got})
		}
	}
	sort.Slice(mismatches, func(i, j int) bool {
		return mismatches[i].Name < mismatches[j].Name
	})
	return mismatches
}
