// Package recog loads declarative fingerprint databases and matches raw
// input strings (service banners, headers, version strings) against them to
// extract structured identification fields such as vendor, product and
// version. Databases are parsed once, are immutable afterwards, and are
// safe for concurrent read-only matching.
package recog

import "fmt"

// Fields is the named-field output of matching one fingerprint against one
// input string. Constant fields are copied verbatim; capture-derived fields
// take the text of their group. Fields whose group did not participate in
// the match are simply absent.
type Fields map[string]string

// Example is a sample input attached to a fingerprint for self-validation,
// together with the verbatim attributes declared on it in the source
// document.
type Example struct {
	Text       string
	Attributes map[string]string
}

// Fingerprint is one compiled pattern plus its field-extraction rules.
// The position-based rule encoding of the document format is split at
// parse time into constants (position zero) and capture bindings (positive
// positions), so matching needs no format-specific branching.
type Fingerprint struct {
	matcher     Matcher
	description string
	examples    []Example

	constants map[string]string // field name -> literal value
	captures  map[int]string    // capture-group index -> field name
}

// NewFingerprint wraps an already-compiled matcher in an empty fingerprint.
func NewFingerprint(matcher Matcher) *Fingerprint {
	return &Fingerprint{
		matcher:   matcher,
		constants: make(map[string]string),
		captures:  make(map[int]string),
	}
}

// Pattern returns the source pattern text.
func (f *Fingerprint) Pattern() string {
	return f.matcher.String()
}

// Description returns the optional human-readable description.
func (f *Fingerprint) Description() string {
	return f.description
}

// SetDescription attaches a human-readable description.
func (f *Fingerprint) SetDescription(description string) {
	f.description = description
}

// Examples returns the attached examples in document order.
func (f *Fingerprint) Examples() []Example {
	return f.examples
}

// AddExample appends an example, preserving document order.
func (f *Fingerprint) AddExample(example Example) {
	f.examples = append(f.examples, example)
}

// AddConstant registers name as a constant field copied verbatim into every
// match result. Each field name may carry exactly one resolution rule.
func (f *Fingerprint) AddConstant(name, value string) error {
	if f.hasField(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}
	f.constants[name] = value
	return nil
}

// BindGroup registers name as a capture-derived field taking the text of
// group pos. pos must be a positive capture-group index.
func (f *Fingerprint) BindGroup(pos int, name string) error {
	if pos <= 0 {
		return fmt.Errorf("%w: %d for field %q", ErrInvalidPosition, pos, name)
	}
	if f.hasField(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}
	f.captures[pos] = name
	return nil
}

func (f *Fingerprint) hasField(name string) bool {
	if _, ok := f.constants[name]; ok {
		return true
	}
	for _, bound := range f.captures {
		if bound == name {
			return true
		}
	}
	return false
}

// FieldCount returns the number of declared field rules.
func (f *Fingerprint) FieldCount() int {
	return len(f.constants) + len(f.captures)
}

// Match attempts the pattern against input. When the pattern does not
// match it returns (nil, false). On a match it resolves every field rule:
// constants verbatim, capture-derived fields from the matched groups. A
// capture whose group is out of range for the pattern, or did not
// participate in this particular match, is omitted from the result rather
// than failing it, so a successful regex match always yields a non-nil
// Fields.
func (f *Fingerprint) Match(input string) (Fields, bool) {
	groups, ok := f.matcher.Match(input)
	if !ok {
		return nil, false
	}

	fields := make(Fields, len(f.constants)+len(f.captures))
	for name, value := range f.constants {
		fields[name] = value
	}
	for pos, name := range f.captures {
		if text, ok := groups.At(pos); ok {
			fields[name] = text
		}
	}
	return fields, true
}
