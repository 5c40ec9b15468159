// Package calculi bundles rule sets for the toy languages of Pierce's Types
// and Programming Languages, written in natded rule notation: untyped
// booleans and naturals with small-step evaluation, their simple type
// systems, and the simply typed lambda calculus with typing contexts.
//
// Each calculus is assembled from embedded rule files, so syntax judgments
// can be shared between an evaluation relation and a typing relation.
package calculi

import (
	"embed"
	"fmt"
	"path"
	"sort"

	"github.com/gitrdm/natded/pkg/natded"
)

//go:embed rules
var files embed.FS

// Calculus describes one bundled relation.
type Calculus struct {
	// Name identifies the calculus, e.g. "lambda".
	Name string
	// Relation is the relation's token list, e.g. ⊢ and :.
	Relation natded.Name
	// Description is a one-line summary.
	Description string
	// Parts lists the embedded rule files, in rule order.
	Parts []string
}

var registry = map[string]Calculus{
	"booleans": {
		Name:        "booleans",
		Relation:    natded.Name{"→"},
		Description: "small-step evaluation of if/true/false",
		Parts:       []string{"evaluation/boolean-syntax", "evaluation/boolean-semantics"},
	},
	"arithmetic": {
		Name:        "arithmetic",
		Relation:    natded.Name{"→"},
		Description: "small-step evaluation of booleans and naturals",
		Parts: []string{
			"evaluation/boolean-syntax", "evaluation/boolean-semantics",
			"evaluation/arithmetic-syntax", "evaluation/arithmetic-semantics",
		},
	},
	"typed-booleans": {
		Name:        "typed-booleans",
		Relation:    natded.Name{":"},
		Description: "typing of boolean terms",
		Parts:       []string{"typing/boolean-terms", "typing/boolean-types", "typing/boolean-typing"},
	},
	"typed-arithmetic": {
		Name:        "typed-arithmetic",
		Relation:    natded.Name{":"},
		Description: "typing of boolean and arithmetic terms",
		Parts: []string{
			"typing/boolean-terms", "typing/boolean-types", "typing/boolean-typing",
			"typing/arithmetic-terms", "typing/arithmetic-types", "typing/arithmetic-typing",
		},
	},
	"lambda": {
		Name:        "lambda",
		Relation:    natded.Name{"⊢", ":"},
		Description: "simply typed lambda calculus over booleans, with typing contexts",
		Parts: []string{
			"typing/boolean-terms", "typing/lambda-terms",
			"typing/boolean-types", "typing/lambda-types",
			"typing/lambda-contexts", "typing/lambda-typing",
		},
	},
}

// Names returns the names of the bundled calculi, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the calculus called name.
func Lookup(name string) (Calculus, bool) {
	c, ok := registry[name]
	return c, ok
}

// RuleSet returns the rules of the calculus called name.
func RuleSet(name string) (*natded.RuleSet, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("calculi: unknown calculus %q", name)
	}
	parts := make([]*natded.RuleSet, len(c.Parts))
	for i, p := range c.Parts {
		rs, err := part(p)
		if err != nil {
			return nil, err
		}
		parts[i] = rs
	}
	rs := natded.Concat(c.Relation, parts...)
	rs.Description = c.Description
	return rs, nil
}

// Load returns the relation of the calculus called name.
func Load(name string, opts ...natded.Option) (*natded.Relation, error) {
	rs, err := RuleSet(name)
	if err != nil {
		return nil, err
	}
	return rs.Relation(opts...)
}

// MustLoad is like Load but panics on error.
func MustLoad(name string, opts ...natded.Option) *natded.Relation {
	r, err := Load(name, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func part(name string) (*natded.RuleSet, error) {
	data, err := files.ReadFile(path.Join("rules", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("calculi: %w", err)
	}
	rs, err := natded.ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("calculi: %s: %w", name, err)
	}
	return rs, nil
}
