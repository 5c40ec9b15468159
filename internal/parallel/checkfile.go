package parallel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// CheckFile is a list of queries with expectations, run against one
// relation:
//
//	relation: lambda
//	queries:
//	  - inputs: ["∅", "λ a : Bool . a"]
//	    expect: Bool → Bool
//
// Rules, when set, names a rule-set file to run against instead of a
// configured relation. It is resolved relative to the check file.
type CheckFile struct {
	Relation string  `yaml:"relation,omitempty"`
	Rules    string  `yaml:"rules,omitempty"`
	Queries  []Query `yaml:"queries" validate:"required,min=1,dive"`
}

// ErrInvalidCheckFile is wrapped by LoadCheckFile when the document is
// well-formed YAML but not a valid check file.
var ErrInvalidCheckFile = errors.New("invalid check file")

var validate = validator.New()

// ParseCheckFile decodes and validates a check file.
func ParseCheckFile(data []byte) (*CheckFile, error) {
	var cf CheckFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCheckFile, err)
	}
	if err := validate.Struct(&cf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCheckFile, err)
	}
	if cf.Relation != "" && cf.Rules != "" {
		return nil, fmt.Errorf("%w: relation and rules are mutually exclusive", ErrInvalidCheckFile)
	}
	return &cf, nil
}

// LoadCheckFile reads the check file at path.
func LoadCheckFile(path string) (*CheckFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cf, err := ParseCheckFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cf.Rules != "" && !filepath.IsAbs(cf.Rules) {
		cf.Rules = filepath.Join(filepath.Dir(path), cf.Rules)
	}
	return cf, nil
}
