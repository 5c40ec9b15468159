package natded

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRuleSet is returned for rule-set documents that are well formed
// YAML or JSON but do not describe a rule set.
var ErrInvalidRuleSet = errors.New("natded: invalid rule set")

// Name is the token list naming a relation. In rule-set files it is written
// either as a single string or as a list of strings.
type Name []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (n *Name) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*n = Name{node.Value}
		return nil
	case yaml.SequenceNode:
		var tokens []string
		if err := node.Decode(&tokens); err != nil {
			return err
		}
		*n = Name(tokens)
		return nil
	default:
		return fmt.Errorf("%w: line %d: name must be a string or a list of strings", ErrInvalidRuleSet, node.Line)
	}
}

// MarshalYAML writes a single-token name as a plain string.
func (n Name) MarshalYAML() (interface{}, error) {
	if len(n) == 1 {
		return n[0], nil
	}
	return []string(n), nil
}

// String joins the tokens with spaces.
func (n Name) String() string {
	return strings.Join(n, " ")
}

// UnmarshalYAML accepts either a mapping with premises and conclusion or a
// bare string, which is read as an axiom with that conclusion.
func (def *RuleDefinition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*def = RuleDefinition{Conclusion: node.Value}
		return nil
	}
	type plain RuleDefinition
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*def = RuleDefinition(p)
	return nil
}

// RuleSet is the file form of a relation: its name and its rules.
//
//	name: ["⊢", ":"]
//	rules:
//	  - "∅ ∈ Г"
//	  - name: T-Var
//	    premises: ["$Г assumes ($x : $T)"]
//	    conclusion: "$Г ⊢ $x : $T"
//
// A document that is just a list of rules is accepted too; its Name is
// empty and must be supplied before calling Relation.
type RuleSet struct {
	Name        Name             `yaml:"name" json:"name"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Rules       []RuleDefinition `yaml:"rules" json:"rules"`
}

// ParseRuleSet decodes a YAML or JSON rule-set document and checks that
// every rule has a conclusion. Rule text is not parsed until Relation.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidRuleSet)
	}

	rs := &RuleSet{}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&rs.Rules); err != nil {
			return nil, fmt.Errorf("decode rule set: %w", err)
		}
	case yaml.MappingNode:
		if err := root.Decode(rs); err != nil {
			return nil, fmt.Errorf("decode rule set: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: line %d: expected a mapping or a list of rules", ErrInvalidRuleSet, root.Line)
	}

	for i, r := range rs.Rules {
		if strings.TrimSpace(r.Conclusion) == "" {
			return nil, fmt.Errorf("%w: rule %d has no conclusion", ErrInvalidRuleSet, i+1)
		}
	}
	return rs, nil
}

// LoadRuleSet reads and decodes the rule-set file at path.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	rs, err := ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Concat returns a rule set named name holding the rules of sets in order.
// Rule sets are commonly assembled this way from a syntax part and a
// semantics part.
func Concat(name Name, sets ...*RuleSet) *RuleSet {
	out := &RuleSet{Name: append(Name(nil), name...)}
	for _, s := range sets {
		out.Rules = append(out.Rules, s.Rules...)
	}
	return out
}

// Relation parses every rule and returns the relation they define.
func (rs *RuleSet) Relation(opts ...Option) (*Relation, error) {
	if len(rs.Name) == 0 {
		return nil, fmt.Errorf("%w: rule set has no relation name", ErrInvalidRuleSet)
	}
	return Define(rs.Name, rs.Rules, opts...)
}

// Marshal encodes the rule set as YAML.
func (rs *RuleSet) Marshal() ([]byte, error) {
	return yaml.Marshal(rs)
}
