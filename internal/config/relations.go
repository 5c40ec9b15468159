package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gitrdm/natded/pkg/calculi"
	"github.com/gitrdm/natded/pkg/natded"
)

// RuleFileName returns the name a rule file is served under: its base name
// without extension.
func RuleFileName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Relations loads every configured built-in calculus and rule file, keyed
// by name, with the configured limits and logger applied. Names must be
// unique across both lists.
func (c *Config) Relations(logger *slog.Logger) (map[string]*natded.Relation, error) {
	opts := append(c.Options(), natded.WithLogger(logger))
	out := make(map[string]*natded.Relation, len(c.Builtin)+len(c.Rules))

	for _, name := range c.Builtin {
		r, err := calculi.Load(name, opts...)
		if err != nil {
			return nil, err
		}
		out[name] = r
	}

	for _, path := range c.Rules {
		name := RuleFileName(path)
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("rule file %s: relation %q is already defined", path, name)
		}
		r, err := LoadRelationNamed(path, c.RelationName, opts...)
		if err != nil {
			return nil, err
		}
		out[name] = r
	}
	return out, nil
}

// LoadRelation reads a rule-set file and builds its relation. The file must
// name its relation.
func LoadRelation(path string, opts ...natded.Option) (*natded.Relation, error) {
	return LoadRelationNamed(path, nil, opts...)
}

// LoadRelationNamed is like LoadRelation but names the relation fallback
// when the file does not, as with a bare list of rules.
func LoadRelationNamed(path string, fallback natded.Name, opts ...natded.Option) (*natded.Relation, error) {
	rs, err := natded.LoadRuleSet(path)
	if err != nil {
		return nil, err
	}
	if len(rs.Name) == 0 {
		rs.Name = fallback
	}
	r, err := rs.Relation(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
