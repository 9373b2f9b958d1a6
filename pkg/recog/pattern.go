package recog

import (
	"regexp"
	"time"

	"github.com/dlclark/regexp2"
)

// Flags select regex behavior independently of any backend's native flag
// encoding. Parsers translate document flag tokens into this bitmask and
// each matcher backend maps it onto its own dialect.
type Flags int

const (
	// FlagIgnoreCase enables case-insensitive matching.
	FlagIgnoreCase Flags = 1 << iota
	// FlagDotAll makes "." match newline characters.
	FlagDotAll
	// FlagMultiline gives "^" and "$" per-line anchor semantics.
	FlagMultiline
)

// Group is one capture slot of a successful match. Matched is false when
// the group did not participate in the match.
type Group struct {
	Text    string
	Matched bool
}

// Groups holds the capture groups of one successful match. Position 0 is
// the full match; field rules address groups from position 1.
type Groups []Group

// At resolves the capture at pos. ok is false when pos is out of range for
// the pattern or the group did not participate in the match.
func (g Groups) At(pos int) (string, bool) {
	if pos < 0 || pos >= len(g) || !g[pos].Matched {
		return "", false
	}
	return g[pos].Text, true
}

// Matcher is the narrow pattern-matching capability the engine depends on.
// A compiled Matcher must be safe for concurrent Match calls so parsed
// databases can be shared across matching workloads.
type Matcher interface {
	// Match attempts the pattern against input, returning the captured
	// groups on success and false when the pattern does not match.
	Match(input string) (Groups, bool)
	// String returns the source pattern text.
	String() string
}

// MatcherFactory compiles pattern text under the given flags. A compile
// error is a definition-level failure: the parser rejects the single
// fingerprint carrying the pattern, not the whole document.
type MatcherFactory func(pattern string, flags Flags) (Matcher, error)

// matchTimeout bounds backtracking in the regexp2 backend. Fingerprint
// corpora are third-party input and the occasional pathological pattern
// must not stall a matching pipeline.
const matchTimeout = 500 * time.Millisecond

type regexp2Matcher struct {
	re *regexp2.Regexp
}

// NewRegexp2Matcher compiles pattern with github.com/dlclark/regexp2,
// which accepts the PCRE-flavored constructs (backreferences, lookarounds)
// common in published fingerprint corpora. This is the factory parsers use
// unless overridden.
func NewRegexp2Matcher(pattern string, flags Flags) (Matcher, error) {
	var opts regexp2.RegexOptions
	if flags&FlagIgnoreCase != 0 {
		opts |= regexp2.IgnoreCase
	}
	if flags&FlagDotAll != 0 {
		opts |= regexp2.Singleline
	}
	if flags&FlagMultiline != 0 {
		opts |= regexp2.Multiline
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout

	return &regexp2Matcher{re: re}, nil
}

func (m *regexp2Matcher) Match(input string) (Groups, bool) {
	match, err := m.re.FindStringMatch(input)
	if err != nil || match == nil {
		return nil, false
	}

	parts := match.Groups()
	groups := make(Groups, len(parts))
	for i, g := range parts {
		if len(g.Captures) == 0 {
			continue
		}
		groups[i] = Group{Text: g.Captures[len(g.Captures)-1].String(), Matched: true}
	}
	return groups, true
}

func (m *regexp2Matcher) String() string {
	return m.re.String()
}

type goMatcher struct {
	re     *regexp.Regexp
	source string
}

// NewGoMatcher compiles pattern with the standard library's RE2 engine.
// regexp.Compile has no flags argument, so the bitmask is rewritten as an
// inline "(?ism)" prefix. RE2 rejects backreferences and lookarounds; use
// NewRegexp2Matcher for corpora that rely on them.
func NewGoMatcher(pattern string, flags Flags) (Matcher, error) {
	re, err := regexp.Compile(inlineFlags(flags) + pattern)
	if err != nil {
		return nil, err
	}
	return &goMatcher{re: re, source: pattern}, nil
}

func inlineFlags(flags Flags) string {
	if flags == 0 {
		return ""
	}
	letters := make([]byte, 0, 3)
	if flags&FlagIgnoreCase != 0 {
		letters = append(letters, 'i')
	}
	if flags&FlagDotAll != 0 {
		letters = append(letters, 's')
	}
	if flags&FlagMultiline != 0 {
		letters = append(letters, 'm')
	}
	if len(letters) == 0 {
		return ""
	}
	return "(?" + string(letters) + ")"
}

func (m *goMatcher) Match(input string) (Groups, bool) {
	idx := m.re.FindStringSubmatchIndex(input)
	if idx == nil {
		return nil, false
	}

	groups := make(Groups, len(idx)/2)
	for i := range groups {
		start, end := idx[2*i], idx[2*i+1]
		if start < 0 {
			continue
		}
		groups[i] = Group{Text: input[start:end], Matched: true}
	}
	return groups, true
}

func (m *goMatcher) String() string {
	return m.source
}
