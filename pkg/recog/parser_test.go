package recog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, strict bool, doc string) (*Database, error) {
	t.Helper()
	parser := NewParser(strict).WithLogger(zerolog.Nop())
	return parser.Parse(strings.NewReader(doc), "fallback")
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, strict := range []bool{false, true} {
		db, err := parseDoc(t, strict, `<fingerprints matches="test.banner"/>`)
		require.NoError(t, err)
		require.Equal(t, "test.banner", db.Key)
		require.Equal(t, 0, db.Len())
	}
}

func TestParse_KeyFallback(t *testing.T) {
	db, err := parseDoc(t, false, `<fingerprints/>`)
	require.NoError(t, err)
	require.Equal(t, "fallback", db.Key)
	require.NotEmpty(t, db.Key)

	db, err = parseDoc(t, false, `<fingerprints matches=""/>`)
	require.NoError(t, err)
	require.Equal(t, "fallback", db.Key)
}

func TestParse_Metadata(t *testing.T) {
	db, err := parseDoc(t, false, `<fingerprints matches="ssh.banner" protocol="ssh" database_type="service" preference="0.85"/>`)
	require.NoError(t, err)
	require.Equal(t, "ssh.banner", db.Key)
	require.Equal(t, "ssh", db.Protocol)
	require.Equal(t, "service", db.Type)
	require.InDelta(t, 0.85, db.Preference, 1e-9)
}

func TestParse_MalformedPreferenceDefaultsToZero(t *testing.T) {
	for _, strict := range []bool{false, true} {
		db, err := parseDoc(t, strict, `<fingerprints matches="test.banner" preference="abc"/>`)
		require.NoError(t, err, "preference is best-effort even in strict mode")
		require.Zero(t, db.Preference)
	}
}

func TestParse_Fingerprint(t *testing.T) {
	doc := `<fingerprints matches="test.banner">
		<fingerprint pattern="Acme v(\d+)">
			<description>Acme service banner</description>
			<example version="3">Acme v3</example>
			<param pos="0" name="vendor" value="Acme"/>
			<param pos="1" name="version"/>
		</fingerprint>
	</fingerprints>`

	db, err := parseDoc(t, true, doc)
	require.NoError(t, err)
	require.Equal(t, 1, db.Len())

	f := db.Fingerprints()[0]
	require.Equal(t, `Acme v(\d+)`, f.Pattern())
	require.Equal(t, "Acme service banner", f.Description())
	require.Len(t, f.Examples(), 1)
	require.Equal(t, "Acme v3", f.Examples()[0].Text)
	require.Equal(t, "3", f.Examples()[0].Attributes["version"])

	fields, ok := f.Match("Acme v3")
	require.True(t, ok)
	require.Equal(t, Fields{"vendor": "Acme", "version": "3"}, fields)
}

func TestParse_Flags(t *testing.T) {
	tests := []struct {
		name    string
		flags   string
		input   string
		matches bool
	}{
		{"ignorecase", "IGNORECASE", "ACME", true},
		{"posix ignorecase", "REG_ICASE", "ACME", true},
		{"no flags", "", "ACME", false},
		{"unrecognized tokens ignored", "FANCY_FUTURE_FLAG,IGNORECASE", "ACME", true},
		{"mixed delimiters", "REG_MULTILINE| IGNORECASE ;\tREG_DOT_NEWLINE", "ACME", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := `<fingerprints matches="test.banner">
				<fingerprint pattern="^acme$" flags="` + tc.flags + `"/>
			</fingerprints>`
			db, err := parseDoc(t, true, doc)
			require.NoError(t, err)
			require.Equal(t, 1, db.Len())

			_, ok := db.Fingerprints()[0].Match(tc.input)
			require.Equal(t, tc.matches, ok)
		})
	}
}

func TestParse_Base64ExampleExcluded(t *testing.T) {
	doc := `<fingerprints matches="test.banner">
		<fingerprint pattern="Acme">
			<example _encoding="base64">QWNtZQ==</example>
			<example note="plain">Acme</example>
		</fingerprint>
	</fingerprints>`

	db, err := parseDoc(t, true, doc)
	require.NoError(t, err)

	examples := db.Fingerprints()[0].Examples()
	require.Len(t, examples, 1)
	require.Equal(t, "Acme", examples[0].Text)
	require.Equal(t, "plain", examples[0].Attributes["note"])
}

func TestParse_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		wantErr error
	}{
		{
			"missing pattern",
			`<fingerprint><param pos="0" name="vendor" value="Acme"/></fingerprint>`,
			ErrMissingAttribute,
		},
		{
			"invalid pattern",
			`<fingerprint pattern="(unclosed"/>`,
			ErrInvalidPattern,
		},
		{
			"missing param name",
			`<fingerprint pattern="Acme"><param pos="1"/></fingerprint>`,
			ErrMissingAttribute,
		},
		{
			"missing param pos",
			`<fingerprint pattern="Acme"><param name="vendor" value="Acme"/></fingerprint>`,
			ErrMissingAttribute,
		},
		{
			"non-integer pos",
			`<fingerprint pattern="Acme"><param pos="one" name="vendor"/></fingerprint>`,
			ErrInvalidPosition,
		},
		{
			"constant without value",
			`<fingerprint pattern="Acme"><param pos="0" name="vendor"/></fingerprint>`,
			ErrMissingAttribute,
		},
		{
			"positional with literal value",
			`<fingerprint pattern="Acme v(\d+)"><param pos="1" name="version" value="3"/></fingerprint>`,
			ErrAmbiguousValue,
		},
		{
			"duplicate field name",
			`<fingerprint pattern="Acme v(\d+)"><param pos="0" name="vendor" value="Acme"/><param pos="1" name="vendor"/></fingerprint>`,
			ErrDuplicateField,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := `<fingerprints matches="test.banner">` + tc.entry + `</fingerprints>`

			// Lenient mode skips the entry and still succeeds.
			db, err := parseDoc(t, false, doc)
			require.NoError(t, err)
			require.Equal(t, 0, db.Len())

			// Strict mode aborts the whole parse.
			_, err = parseDoc(t, true, doc)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestParse_LenientKeepsRemainingEntries(t *testing.T) {
	doc := `<fingerprints matches="test.banner">
		<fingerprint pattern="(unclosed"/>
		<fingerprint pattern="Acme"/>
		<fingerprint/>
		<fingerprint pattern="Widget"/>
	</fingerprints>`

	db, err := parseDoc(t, false, doc)
	require.NoError(t, err)
	require.Equal(t, 2, db.Len())
	require.Equal(t, "Acme", db.Fingerprints()[0].Pattern())
	require.Equal(t, "Widget", db.Fingerprints()[1].Pattern())

	_, err = parseDoc(t, true, doc)
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParse_StructuralErrorAlwaysFatal(t *testing.T) {
	for _, strict := range []bool{false, true} {
		_, err := parseDoc(t, strict, `this is not a fingerprint document`)
		require.ErrorIs(t, err, ErrInvalidDocument)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "http_banner.xml")
	doc := `<fingerprints>
		<fingerprint pattern="Acme v(\d+)">
			<param pos="1" name="version"/>
		</fingerprint>
	</fingerprints>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	db, err := NewParser(false).ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, path, db.Path)
	require.Equal(t, "http_banner", db.Key, "file name without extension becomes the fallback key")
	require.Equal(t, 1, db.Len())
}

func TestParseWithPath(t *testing.T) {
	db, err := NewParser(false).ParseWithPath(strings.NewReader(`<fingerprints matches="test.banner"/>`), "db/test.xml", "fallback")
	require.NoError(t, err)
	require.Equal(t, "db/test.xml", db.Path)
	require.Equal(t, "test.banner", db.Key)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := NewParser(false).ParseFile(filepath.Join(t.TempDir(), "absent.xml"))
	require.Error(t, err)
}

func TestParse_CustomFactory(t *testing.T) {
	parser := NewParserWithFactory(true, NewGoMatcher).WithLogger(zerolog.Nop())
	db, err := parser.Parse(strings.NewReader(`<fingerprints matches="test.banner">
		<fingerprint pattern="^acme$" flags="IGNORECASE"/>
	</fingerprints>`), "fallback")
	require.NoError(t, err)

	_, ok := db.Fingerprints()[0].Match("ACME")
	require.True(t, ok, "flag semantics must survive a backend swap")
}
