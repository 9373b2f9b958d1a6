package recog

// Database is an ordered collection of fingerprints sharing provenance
// metadata. Insertion order is preserved and is the authoritative
// match-attempt order for first-match semantics.
type Database struct {
	// Path records where the source document was read from, when known.
	Path string
	// Key identifies the database. The parser guarantees it is never
	// empty, falling back to a caller-supplied default when the document
	// declares none.
	Key string
	// Protocol is the free-text protocol tag declared by the document.
	Protocol string
	// Type is the free-text database-type tag declared by the document.
	Type string
	// Preference is a ranking weight for callers holding several
	// databases. Malformed document values default to 0.
	Preference float64

	fingerprints []*Fingerprint
}

// NewDatabase constructs an empty database carrying the given metadata.
func NewDatabase(path, key, protocol, dbType string, preference float64) *Database {
	return &Database{
		Path:       path,
		Key:        key,
		Protocol:   protocol,
		Type:       dbType,
		Preference: preference,
	}
}

// Add appends a fingerprint. There is no uniqueness constraint on pattern
// text or description.
func (d *Database) Add(f *Fingerprint) {
	d.fingerprints = append(d.fingerprints, f)
}

// Fingerprints returns the fingerprints in insertion order.
func (d *Database) Fingerprints() []*Fingerprint {
	return d.fingerprints
}

// Len returns the number of fingerprints in the database.
func (d *Database) Len() int {
	return len(d.fingerprints)
}

// Match pairs a resolved field set with the fingerprint that produced it.
type Match struct {
	Fingerprint *Fingerprint
	Fields      Fields
}

// FirstMatch tries input against each fingerprint in order and returns the
// first match.
func (d *Database) FirstMatch(input string) (Match, bool) {
	for _, f := range d.fingerprints {
		if fields, ok := f.Match(input); ok {
			return Match{Fingerprint: f, Fields: fields}, true
		}
	}
	return Match{}, false
}

// BestMatch tries input against every fingerprint and returns the match
// that resolved the most fields. Earlier fingerprints win ties.
func (d *Database) BestMatch(input string) (Match, bool) {
	var best Match
	found := false
	for _, f := range d.fingerprints {
		fields, ok := f.Match(input)
		if !ok {
			continue
		}
		if !found || len(fields) > len(best.Fields) {
			best = Match{Fingerprint: f, Fields: fields}
			found = true
		}
	}
	return best, found
}

// AllMatches tries input against every fingerprint and returns each match
// in database order.
func (d *Database) AllMatches(input string) []Match {
	var matches []Match
	for _, f := range d.fingerprints {
		if fields, ok := f.Match(input); ok {
			matches = append(matches, Match{Fingerprint: f, Fields: fields})
		}
	}
	return matches
}
