package natded

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Rule is a list of premises over a conclusion. Premises and conclusion are
// templates, re-instantiated in a fresh scope on every match attempt. Rules
// are immutable once constructed.
type Rule struct {
	name       string
	premises   []Template
	conclusion Template
}

// RuleDefinition is the textual form of a rule, as found in rule-set files.
type RuleDefinition struct {
	// Name optionally labels the rule in proofs and diagnostics.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Premises default to none.
	Premises []string `yaml:"premises,omitempty" json:"premises,omitempty"`
	// Conclusion is required.
	Conclusion string `yaml:"conclusion" json:"conclusion"`
}

// NewRule returns a rule over already parsed templates.
func NewRule(name string, premises []Template, conclusion Template) *Rule {
	owned := make([]Template, len(premises))
	copy(owned, premises)
	return &Rule{name: name, premises: owned, conclusion: conclusion}
}

// DefineRule parses every premise and the conclusion of def.
func DefineRule(def RuleDefinition) (*Rule, error) {
	conclusion, err := ParseTemplate(def.Conclusion)
	if err != nil {
		return nil, fmt.Errorf("rule %s: conclusion: %w", def.label(), err)
	}
	premises := make([]Template, len(def.Premises))
	for i, p := range def.Premises {
		premises[i], err = ParseTemplate(p)
		if err != nil {
			return nil, fmt.Errorf("rule %s: premise %d: %w", def.label(), i+1, err)
		}
	}
	return &Rule{name: def.Name, premises: premises, conclusion: conclusion}, nil
}

// MustDefineRule is like DefineRule but panics on error.
func MustDefineRule(def RuleDefinition) *Rule {
	r, err := DefineRule(def)
	if err != nil {
		panic(err)
	}
	return r
}

func (def RuleDefinition) label() string {
	if def.Name != "" {
		return def.Name
	}
	return fmt.Sprintf("%q", def.Conclusion)
}

// Name returns the rule's label, or its conclusion if it has none.
func (r *Rule) Name() string {
	if r.name != "" {
		return r.name
	}
	return r.conclusion.String()
}

// Premises returns the premise templates.
func (r *Rule) Premises() []Template {
	out := make([]Template, len(r.premises))
	copy(out, r.premises)
	return out
}

// Conclusion returns the conclusion template.
func (r *Rule) Conclusion() Template {
	return r.conclusion
}

// Match is a rule whose conclusion unified with a goal: the premises still
// to be proved, instantiated in the match's scope, and the unifying state.
type Match struct {
	Rule     *Rule
	Scope    Scope
	Premises []Expression
	State    *State
}

// Match tries the rule against goal. A fresh scope is allocated for every
// call, so two matches of the same rule never share variables. It returns
// nil when the conclusion does not unify with goal.
func (r *Rule) Match(goal Expression, state *State) *Match {
	scope := NewScope()
	next := state.Unify(goal, r.conclusion.Instantiate(scope))
	if next == nil {
		return nil
	}
	premises := make([]Expression, len(r.premises))
	for i, p := range r.premises {
		premises[i] = p.Instantiate(scope)
	}
	return &Match{Rule: r, Scope: scope, Premises: premises, State: next}
}

// String renders the rule with premises separated by two spaces above a
// dashed line as wide as the longer of premises and conclusion.
func (r *Rule) String() string {
	ps := make([]string, len(r.premises))
	for i, p := range r.premises {
		ps[i] = p.String()
	}
	premises := strings.Join(ps, "  ")
	conclusion := r.conclusion.String()

	width := utf8.RuneCountInString(conclusion)
	if n := utf8.RuneCountInString(premises); n > width {
		width = n
	}

	lines := make([]string, 0, 3)
	if premises != "" {
		lines = append(lines, premises)
	}
	lines = append(lines, strings.Repeat("-", width), conclusion)
	return strings.Join(lines, "\n")
}
