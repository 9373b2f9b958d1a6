package recog

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
)

// Parser converts fingerprint definition documents into Databases. In
// lenient mode malformed entries are reported through the logger and
// skipped, so as many fingerprints as possible are loaded. In strict mode
// the first malformed entry aborts the whole parse.
type Parser struct {
	strict  bool
	factory MatcherFactory
	log     zerolog.Logger
}

// NewParser constructs a parser with the given strictness using the
// regexp2 matcher backend.
func NewParser(strict bool) *Parser {
	return NewParserWithFactory(strict, NewRegexp2Matcher)
}

// NewParserWithFactory constructs a parser whose fingerprints compile
// their patterns through factory.
func NewParserWithFactory(strict bool, factory MatcherFactory) *Parser {
	return &Parser{strict: strict, factory: factory, log: log.Logger}
}

// WithLogger routes lenient-mode skip reports to logger and returns the
// parser for chaining.
func (p *Parser) WithLogger(logger zerolog.Logger) *Parser {
	p.log = logger
	return p
}

// ParseFile parses the fingerprint database document at path. The file
// name without its extension becomes the database key when the document
// does not declare one.
func (p *Parser) ParseFile(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fingerprint database %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return p.parse(f, path, name)
}

// Parse parses a fingerprint database document from r. name becomes the
// database key when the document does not declare one.
func (p *Parser) Parse(r io.Reader, name string) (*Database, error) {
	return p.parse(r, "", name)
}

// ParseWithPath is Parse with an explicit provenance path recorded on the
// resulting database.
func (p *Parser) ParseWithPath(r io.Reader, path, name string) (*Database, error) {
	return p.parse(r, path, name)
}

// Wire representation of the document format. Example attributes are
// collected wholesale because the source attaches free-form metadata
// (expected field values) that must be preserved verbatim.
type xmlFingerprints struct {
	Matches      string           `xml:"matches,attr"`
	Protocol     string           `xml:"protocol,attr"`
	DatabaseType string           `xml:"database_type,attr"`
	Preference   string           `xml:"preference,attr"`
	Fingerprints []xmlFingerprint `xml:"fingerprint"`
}

type xmlFingerprint struct {
	Pattern      string       `xml:"pattern,attr"`
	Flags        string       `xml:"flags,attr"`
	Descriptions []xmlText    `xml:"description"`
	Examples     []xmlExample `xml:"example"`
	Params       []xmlParam   `xml:"param"`
}

type xmlText struct {
	Text string `xml:",chardata"`
}

type xmlExample struct {
	Text  string     `xml:",chardata"`
	Attrs []xml.Attr `xml:",any,attr"`
}

type xmlParam struct {
	Name  string `xml:"name,attr"`
	Pos   string `xml:"pos,attr"`
	Value string `xml:"value,attr"`
}

func (p *Parser) parse(r io.Reader, path, name string) (*Database, error) {
	var doc xmlFingerprints
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	// Preference is best-effort in both modes: a malformed value keeps
	// the zero default and never surfaces to the caller.
	preference, err := cast.ToFloat64E(doc.Preference)
	if err != nil {
		preference = 0
	}

	key := doc.Matches
	if key == "" {
		p.log.Debug().Str("name", name).Msg("database declares no key, using fallback")
		key = name
	}

	db := NewDatabase(path, key, doc.Protocol, doc.DatabaseType, preference)

	for i, entry := range doc.Fingerprints {
		f, err := p.parseFingerprint(entry)
		if err != nil {
			if p.strict {
				return nil, fmt.Errorf("fingerprint %d of database %q: %w", i, key, err)
			}
			p.log.Warn().Err(err).Str("database", key).Int("index", i).Msg("skipping malformed fingerprint")
			continue
		}
		db.Add(f)
	}

	return db, nil
}

// parseFingerprint converts one fingerprint entry, returning an error for
// any definition-level fault. The strict/lenient policy is applied by the
// caller, so both modes share this logic unchanged.
func (p *Parser) parseFingerprint(entry xmlFingerprint) (*Fingerprint, error) {
	if entry.Pattern == "" {
		return nil, fmt.Errorf("%w: pattern", ErrMissingAttribute)
	}

	matcher, err := p.factory(entry.Pattern, parseFlags(entry.Flags))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, entry.Pattern, err)
	}

	f := NewFingerprint(matcher)

	if len(entry.Descriptions) > 0 {
		f.SetDescription(strings.TrimSpace(entry.Descriptions[0].Text))
	}

	for _, ex := range entry.Examples {
		attrs := make(map[string]string, len(ex.Attrs))
		for _, attr := range ex.Attrs {
			attrs[attr.Name.Local] = attr.Value
		}
		if attrs["_encoding"] == "base64" {
			// Encoded examples are not decoded yet and are excluded
			// rather than loaded raw.
			continue
		}
		f.AddExample(Example{Text: ex.Text, Attributes: attrs})
	}

	for _, param := range entry.Params {
		if err := addParam(f, param); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func addParam(f *Fingerprint, param xmlParam) error {
	if param.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingAttribute)
	}
	if param.Pos == "" {
		return fmt.Errorf("%w: pos", ErrMissingAttribute)
	}

	pos, err := strconv.Atoi(param.Pos)
	if err != nil {
		return fmt.Errorf("%w: param %q declares pos %q", ErrInvalidPosition, param.Name, param.Pos)
	}

	// Position zero declares a constant; any other position binds a
	// capture group and must not also carry a literal value.
	if pos == 0 {
		if param.Value == "" {
			return fmt.Errorf("%w: value (param %q)", ErrMissingAttribute, param.Name)
		}
		return f.AddConstant(param.Name, param.Value)
	}

	if param.Value != "" {
		return fmt.Errorf("%w: param %q has position %d but declares value %q", ErrAmbiguousValue, param.Name, pos, param.Value)
	}
	return f.BindGroup(pos, param.Name)
}

// parseFlags tokenizes a flags attribute into the backend-independent
// bitmask. Unrecognized tokens are ignored so newer documents keep
// loading.
func parseFlags(raw string) Flags {
	var flags Flags
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '|' || r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	for _, token := range tokens {
		switch token {
		case "REG_ICASE", "IGNORECASE":
			flags |= FlagIgnoreCase
		case "REG_DOT_NEWLINE":
			flags |= FlagDotAll
		case "REG_MULTILINE":
			flags |= FlagMultiline
		}
	}
	return flags
}
