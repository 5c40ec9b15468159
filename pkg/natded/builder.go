package natded

import (
	"strconv"
	"sync/atomic"
)

// Scope is the freshness key carried by every Variable. Each rule-match
// attempt allocates a new scope so that the variables of one instantiation
// never collide with those of another, even when their names are equal.
type Scope uint64

// NoScope marks the placeholder variables inside a Template. Scopes returned
// by NewScope are never NoScope.
const NoScope Scope = 0

// String returns the scope as a decimal number.
func (s Scope) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// scopeCounter backs NewScope.
var scopeCounter atomic.Uint64

// NewScope returns a scope that has never been returned before. It is safe
// for concurrent use.
func NewScope() Scope {
	return Scope(scopeCounter.Add(1))
}

// Builder constructs expressions, tagging every variable it creates with its
// scope. A Builder carries no other state and is cheap to create per use.
type Builder struct {
	scope Scope
}

// NewBuilder returns a builder bound to scope.
func NewBuilder(scope Scope) *Builder {
	return &Builder{scope: scope}
}

// FreshBuilder returns a builder bound to a newly allocated scope.
func FreshBuilder() *Builder {
	return NewBuilder(NewScope())
}

// Scope returns the builder's scope.
func (b *Builder) Scope() Scope {
	return b.scope
}

// Keyword builds a keyword.
func (b *Builder) Keyword(name string) Expression {
	return Keyword{Name: name}
}

// Sequence builds a sequence, collapsing a single part to that part.
func (b *Builder) Sequence(parts ...Expression) Expression {
	return NewSequence(parts...)
}

// Variable builds a variable in the builder's scope.
func (b *Builder) Variable(name string) Expression {
	return Variable{Name: name, Scope: b.scope}
}
