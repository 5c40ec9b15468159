package natded

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRuleApplies is returned by Once when no derivation exists. For an
	// evaluation relation it means the term is in normal form; for a typing
	// relation it means the term does not typecheck.
	ErrNoRuleApplies = errors.New("natded: no rule applies")

	// ErrNondeterministic is matched by *NondeterministicError. It signals
	// overlapping rules in the rule set rather than a property of the input.
	ErrNondeterministic = errors.New("natded: nondeterministic relation")

	// ErrDepthExceeded is returned when a derivation goes deeper than the
	// limit configured with WithMaxDepth.
	ErrDepthExceeded = errors.New("natded: derivation depth limit exceeded")

	// ErrStepLimit is returned by Many when the limit configured with
	// WithMaxSteps is reached before a normal form.
	ErrStepLimit = errors.New("natded: step limit exceeded")

	// ErrArity is returned when a query supplies a different number of
	// inputs than the relation name has tokens.
	ErrArity = errors.New("natded: wrong number of inputs")

	// ErrParse is matched by *ParseError.
	ErrParse = errors.New("natded: parse error")
)

// NondeterministicError reports a query with more than one derivation.
type NondeterministicError struct {
	// Goal is the query formula, e.g. "if true then false else true → $output".
	Goal Expression
	// Candidates holds the distinct output values, in derivation order.
	Candidates []Expression
	// Derivations is the total number of derivations found, duplicates included.
	Derivations int
}

func (e *NondeterministicError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = fmt.Sprintf("%q", c.String())
	}
	return fmt.Sprintf("natded: nondeterministic relation: %d derivations of %q, candidates [%s]",
		e.Derivations, e.Goal.String(), strings.Join(names, ", "))
}

// Is makes errors.Is(err, ErrNondeterministic) hold.
func (e *NondeterministicError) Is(target error) bool {
	return target == ErrNondeterministic
}

// ParseError describes malformed rule notation.
type ParseError struct {
	// Input is the trimmed text being parsed.
	Input string
	// Offset is the byte offset of the offending character in Input.
	Offset int
	// Found is the offending character, or empty at end of input.
	Found string
	// Expected describes what the parser was looking for, if known.
	Expected string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("natded: unexpected ")
	if e.Found == "" {
		b.WriteString("end of input")
	} else {
		fmt.Fprintf(&b, "%q at offset %d", e.Found, e.Offset)
	}
	if e.Expected != "" {
		b.WriteString(", expected ")
		b.WriteString(e.Expected)
	}
	return b.String()
}

// Is makes errors.Is(err, ErrParse) hold.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
