package natded

import (
	"strings"
)

// Proof is a derivation tree: the rule applied to a goal and the proofs of
// that rule's premises, in order. Proofs returned by Explain have every goal
// resolved under the final state of the derivation.
type Proof struct {
	Rule     *Rule
	Goal     Expression
	Premises []*Proof
}

// Depth returns the height of the tree; a proof by an axiom has depth 1.
func (p *Proof) Depth() int {
	if p == nil {
		return 0
	}
	deepest := 0
	for _, q := range p.Premises {
		if d := q.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Size returns the number of rule applications in the tree.
func (p *Proof) Size() int {
	if p == nil {
		return 0
	}
	n := 1
	for _, q := range p.Premises {
		n += q.Size()
	}
	return n
}

// String renders the tree one goal per line, premises indented below their
// conclusion, each line followed by the name of the rule that proved it.
func (p *Proof) String() string {
	var b strings.Builder
	p.write(&b, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func (p *Proof) write(b *strings.Builder, indent int) {
	if p == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(p.Goal.String())
	b.WriteString("    [")
	b.WriteString(p.Rule.Name())
	b.WriteString("]\n")
	for _, q := range p.Premises {
		q.write(b, indent+1)
	}
}

// resolve returns a copy of the tree with every goal resolved under state.
func (p *Proof) resolve(state *State) *Proof {
	if p == nil {
		return nil
	}
	out := &Proof{Rule: p.Rule, Goal: state.ValueOf(p.Goal)}
	if len(p.Premises) > 0 {
		out.Premises = make([]*Proof, len(p.Premises))
		for i, q := range p.Premises {
			out.Premises[i] = q.resolve(state)
		}
	}
	return out
}
