// Package natded implements a textual notation for natural-deduction inference
// rules and a small engine that answers queries against sets of such rules.
//
// A rule is a list of premises written over a conclusion:
//
//	$t₁ → $t₁′
//	----------------------------------------------------
//	(if $t₁ then $t₂ else $t₃) → (if $t₁′ then $t₂ else $t₃)
//
// Rules are written as plain strings, parsed once into templates and
// re-instantiated with fresh variables every time the search tries them.
// Queries are answered by unification and backward chaining:
//   - Expressions: keywords, sequences and scoped variables
//   - Parser: recursive descent over the rule notation
//   - State: an immutable substitution with resolution and unification
//   - Rule / Definition: template instantiation and derivation search
//   - Relation: single-step (Once) and normal-form (Many) evaluation
//
// The same small core expresses small-step operational semantics, typing
// relations and syntax judgments for toy languages such as booleans,
// naturals and the simply typed lambda calculus.
package natded

import (
	"strings"
)

// Expression is a term of the rule notation. It is one of Keyword,
// *Sequence or Variable.
type Expression interface {
	// String returns the textual form of the expression.
	String() string

	// Equal reports whether the expression is structurally equal to other.
	Equal(other Expression) bool

	// bracketed returns the form used when the expression is nested
	// inside a sequence.
	bracketed() string
}

// Keyword is an atomic token such as true, if, 0 or a relation symbol.
type Keyword struct {
	Name string
}

// String returns the keyword's name.
func (k Keyword) String() string {
	return k.Name
}

// Equal reports whether other is a keyword with the same name.
func (k Keyword) Equal(other Expression) bool {
	o, ok := other.(Keyword)
	return ok && o.Name == k.Name
}

func (k Keyword) bracketed() string {
	return k.Name
}

// Sequence is an ordered juxtaposition of at least two expressions.
// Sequences are immutable; Parts returns a copy of the underlying slice.
type Sequence struct {
	parts []Expression
}

// NewSequence returns the sequence of parts. A single part is returned
// unwrapped and an empty list yields nil, so a *Sequence of length zero or
// one never exists.
func NewSequence(parts ...Expression) Expression {
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	owned := make([]Expression, len(parts))
	copy(owned, parts)
	return &Sequence{parts: owned}
}

// Len returns the number of parts.
func (s *Sequence) Len() int {
	return len(s.parts)
}

// Part returns the i-th part.
func (s *Sequence) Part(i int) Expression {
	return s.parts[i]
}

// Parts returns a copy of the parts.
func (s *Sequence) Parts() []Expression {
	out := make([]Expression, len(s.parts))
	copy(out, s.parts)
	return out
}

// String returns the parts separated by spaces, with nested sequences
// wrapped in parentheses.
func (s *Sequence) String() string {
	var b strings.Builder
	for i, p := range s.parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.bracketed())
	}
	return b.String()
}

// Equal reports whether other is a sequence of the same length whose parts
// are pairwise equal.
func (s *Sequence) Equal(other Expression) bool {
	o, ok := other.(*Sequence)
	if !ok || len(o.parts) != len(s.parts) {
		return false
	}
	if o == s {
		return true
	}
	for i := range s.parts {
		if !s.parts[i].Equal(o.parts[i]) {
			return false
		}
	}
	return true
}

func (s *Sequence) bracketed() string {
	return "(" + s.String() + ")"
}

// Variable is a named placeholder bound to a scope. Two variables are the
// same unification target only if both name and scope match, which keeps
// the variables of separate rule instantiations apart.
type Variable struct {
	Name  string
	Scope Scope
}

// String returns the variable in marker form, e.g. $t₁.
func (v Variable) String() string {
	return "$" + v.Name
}

// Equal reports whether other is the same variable.
func (v Variable) Equal(other Expression) bool {
	o, ok := other.(Variable)
	return ok && o == v
}

func (v Variable) bracketed() string {
	return v.String()
}

// FindVariable returns the first variable named name inside e, searching
// sequences left to right.
func FindVariable(e Expression, name string) (Variable, bool) {
	switch x := e.(type) {
	case Variable:
		if x.Name == name {
			return x, true
		}
	case *Sequence:
		for _, p := range x.parts {
			if v, ok := FindVariable(p, name); ok {
				return v, true
			}
		}
	}
	return Variable{}, false
}

// IsGround reports whether e contains no variables.
func IsGround(e Expression) bool {
	switch x := e.(type) {
	case Variable:
		return false
	case *Sequence:
		for _, p := range x.parts {
			if !IsGround(p) {
				return false
			}
		}
	}
	return true
}
