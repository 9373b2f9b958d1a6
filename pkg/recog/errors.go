package recog

import "errors"

var (
	// ErrInvalidDocument indicates the source is not a well-formed
	// fingerprint document. No partial database can be salvaged, so this
	// error is fatal in both strict and lenient mode.
	ErrInvalidDocument = errors.New("invalid fingerprint document")
	// ErrMissingAttribute indicates a required attribute is absent or empty.
	ErrMissingAttribute = errors.New("missing required attribute")
	// ErrInvalidPattern indicates pattern text the active matcher backend
	// could not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrAmbiguousValue indicates a param with a non-zero position that
	// also declares a literal value.
	ErrAmbiguousValue = errors.New("ambiguous param value")
	// ErrDuplicateField indicates a field name declared with more than one
	// resolution rule.
	ErrDuplicateField = errors.New("duplicate field")
	// ErrInvalidPosition indicates a param position that is not a valid
	// capture-group reference.
	ErrInvalidPosition = errors.New("invalid param position")
)
