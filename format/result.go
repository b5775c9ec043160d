package format

// Result is the outcome of a single matching step (or of Current) on a trie
// cursor. The four states form a small lattice: NoMatch is absorbing until
// the cursor is reset, NoValue means the input so far is a strict prefix of
// at least one key, and the two value states additionally make the value at
// the current position readable.
//
// The numeric order is part of the contract: a Result has a value exactly
// when it is >= FinalValue, and matching can continue exactly when the low
// bit is set (NoValue and IntermediateValue).
type Result int32

const (
	// NoMatch means the input unit sequence does not continue any key.
	// The cursor stays in this state until it is reset.
	NoMatch Result = iota

	// NoValue means the sequence matched so far is a prefix of one or more
	// keys, but no key ends here.
	NoValue

	// FinalValue means the sequence is a key with a value, and no longer
	// key starts with it. GetValue() may be called; further input cannot
	// match.
	FinalValue

	// IntermediateValue means the sequence is a key with a value, and
	// longer keys also start with it. GetValue() may be called and
	// matching may continue.
	IntermediateValue
)

// Matches reports whether the last step matched, i.e. the result is
// anything other than NoMatch.
func (r Result) Matches() bool {
	return r != NoMatch
}

// HasValue reports whether a value is readable at the current position.
func (r Result) HasValue() bool {
	return r >= FinalValue
}

// HasNext reports whether another input unit could extend the match.
func (r Result) HasNext() bool {
	return r&1 != 0
}

func (r Result) String() string {
	switch r {
	case NoMatch:
		return "NoMatch"
	case NoValue:
		return "NoValue"
	case FinalValue:
		return "FinalValue"
	case IntermediateValue:
		return "IntermediateValue"
	default:
		return "Unknown"
	}
}
