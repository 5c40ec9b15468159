package natded

import (
	"context"
	"fmt"
)

// Definition is an ordered set of rules defining a derivability relation.
// Rule order only affects the order in which alternative derivations are
// enumerated, never which goals are derivable.
type Definition struct {
	rules []*Rule
}

// NewDefinition returns a definition over rules.
func NewDefinition(rules ...*Rule) *Definition {
	owned := make([]*Rule, len(rules))
	copy(owned, rules)
	return &Definition{rules: owned}
}

// DefineRules parses defs into a definition. Every rule is parsed once, here.
func DefineRules(defs []RuleDefinition) (*Definition, error) {
	rules := make([]*Rule, len(defs))
	for i, def := range defs {
		r, err := DefineRule(def)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules[i] = r
	}
	return &Definition{rules: rules}, nil
}

// Rules returns the rules in order.
func (d *Definition) Rules() []*Rule {
	out := make([]*Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Len returns the number of rules.
func (d *Definition) Len() int {
	return len(d.rules)
}

// MatchRules tries every rule against goal and returns the matches, in rule
// order.
func (d *Definition) MatchRules(goal Expression, state *State) []*Match {
	var matches []*Match
	for _, r := range d.rules {
		if m := r.Match(goal, state); m != nil {
			matches = append(matches, m)
		}
	}
	return matches
}

// Derive returns every state under which goal is derivable from state. Each
// match's premises are proved left to right, threading the states produced
// by one premise into the next; the results of all matches are concatenated.
// The result may be empty and may contain alternatives.
//
// Derive has no depth guard and does not terminate on rule sets that recurse
// without consuming the goal. Use a Relation configured WithMaxDepth for an
// upper bound.
func (d *Definition) Derive(goal Expression, state *State) []*State {
	s := &search{ctx: context.Background(), definition: d}
	ds, _ := s.derive(goal, state, 0)
	return statesOf(ds)
}

// DeriveContext is like Derive but stops with ctx.Err() when ctx is done.
func (d *Definition) DeriveContext(ctx context.Context, goal Expression, state *State) ([]*State, error) {
	s := &search{ctx: ctx, definition: d}
	ds, err := s.derive(goal, state, 0)
	if err != nil {
		return nil, err
	}
	return statesOf(ds), nil
}

func statesOf(ds []derivation) []*State {
	if len(ds) == 0 {
		return nil
	}
	out := make([]*State, len(ds))
	for i, d := range ds {
		out[i] = d.state
	}
	return out
}
