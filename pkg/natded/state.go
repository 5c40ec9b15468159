package natded

import (
	"fmt"
	"sort"
	"strings"
)

// State is an immutable substitution from variables to expressions. Every
// extension returns a new State and leaves its parent untouched, so a State
// can be shared freely between branches of a search and between goroutines.
//
// The zero value and nil are both valid empty states for reading; NewState
// is the conventional constructor.
type State struct {
	values map[Variable]Expression
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Len returns the number of bindings.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Lookup returns the expression v is directly bound to.
func (s *State) Lookup(v Variable) (Expression, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.values[v]
	return e, ok
}

// ValueOf resolves key under the state. A bound variable is followed through
// its chain of bindings; a sequence is rebuilt with every part resolved;
// anything else is returned as is. Unbound variables remain in the result.
func (s *State) ValueOf(key Expression) Expression {
	switch k := key.(type) {
	case Variable:
		if bound, ok := s.Lookup(k); ok {
			return s.ValueOf(bound)
		}
		return k
	case *Sequence:
		var parts []Expression
		for i, p := range k.parts {
			v := s.ValueOf(p)
			if parts == nil && v != p {
				parts = make([]Expression, len(k.parts))
				copy(parts, k.parts[:i])
			}
			if parts != nil {
				parts[i] = v
			}
		}
		if parts == nil {
			return k
		}
		return &Sequence{parts: parts}
	default:
		return key
	}
}

// Unify returns the state extended with the bindings that make a and b
// equal, or nil if they cannot be made equal. Failure is the normal signal
// that a rule does not apply and carries no error.
//
// No occurs-check is performed: a variable may be bound to a sequence that
// contains it, after which ValueOf on that variable does not terminate.
func (s *State) Unify(a, b Expression) *State {
	if s == nil {
		s = NewState()
	}
	av, bv := s.ValueOf(a), s.ValueOf(b)

	if av.Equal(bv) {
		return s
	}
	if v, ok := av.(Variable); ok {
		return s.bind(v, bv)
	}
	if v, ok := bv.(Variable); ok {
		return s.bind(v, av)
	}

	as, ok := av.(*Sequence)
	if !ok {
		return nil
	}
	bs, ok := bv.(*Sequence)
	if !ok || len(as.parts) != len(bs.parts) {
		return nil
	}

	next := s
	for i := range as.parts {
		next = next.Unify(as.parts[i], bs.parts[i])
		if next == nil {
			return nil
		}
	}
	return next
}

// bind returns a copy of s with v bound to e. Unify only binds variables
// that resolve to themselves, so rebinding is a broken invariant, not an
// input error.
func (s *State) bind(v Variable, e Expression) *State {
	if _, exists := s.Lookup(v); exists {
		panic(fmt.Sprintf("natded: variable %s (scope %s) is already bound", v, v.Scope))
	}
	values := make(map[Variable]Expression, s.Len()+1)
	if s != nil {
		for k, x := range s.values {
			values[k] = x
		}
	}
	values[v] = e
	return &State{values: values}
}

// Bindings returns a copy of the direct bindings.
func (s *State) Bindings() map[Variable]Expression {
	out := make(map[Variable]Expression, s.Len())
	if s != nil {
		for k, v := range s.values {
			out[k] = v
		}
	}
	return out
}

// String returns the bindings sorted by name and scope, e.g.
// {$t₁#3 = true, $t₂#3 = false}.
func (s *State) String() string {
	if s.Len() == 0 {
		return "{}"
	}
	keys := make([]Variable, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Scope < keys[j].Scope
	})

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s#%s = %s", k, k.Scope, s.values[k])
	}
	b.WriteByte('}')
	return b.String()
}
