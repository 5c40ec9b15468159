package parallel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitrdm/natded/internal/ids"
	"github.com/gitrdm/natded/pkg/natded"
)

// Mode selects the relation operation a query runs.
type Mode string

const (
	ModeOnce    Mode = "once"
	ModeMany    Mode = "many"
	ModeExplain Mode = "explain"
)

// Query is one entry of a batch, in the textual form found in check files:
//
//	- inputs: ["(a : Bool , ∅)", "a"]
//	  expect: Bool
//	- mode: many
//	  inputs: ["pred (succ (succ true))"]
//	  expect: pred (succ (succ true))
//	- inputs: ["∅", "a"]
//	  no_rule: true
type Query struct {
	ID     string   `yaml:"id,omitempty" json:"id,omitempty"`
	Mode   Mode     `yaml:"mode,omitempty" json:"mode,omitempty" validate:"omitempty,oneof=once many explain"`
	Inputs []string `yaml:"inputs" json:"inputs" validate:"required,min=1"`
	// Expect is the output the query should produce, if checked.
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`
	// NoRule marks a query that should fail with no rule applying.
	NoRule bool `yaml:"no_rule,omitempty" json:"no_rule,omitempty"`
}

// Result is the outcome of one query.
type Result struct {
	ID      string
	Query   Query
	Output  natded.Expression
	Proof   *natded.Proof
	Err     error
	Elapsed time.Duration
}

// Run evaluates q against r on the calling goroutine. Every input is parsed
// in one shared scope, so a variable name used in two inputs is one variable.
func Run(ctx context.Context, r *natded.Relation, q Query) (res Result) {
	res = Result{ID: q.ID, Query: q}
	if res.ID == "" {
		res.ID = ids.New()
	}

	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	p := natded.NewParser(natded.FreshBuilder())
	inputs := make([]natded.Expression, len(q.Inputs))
	for i, in := range q.Inputs {
		e, err := p.Parse(in)
		if err != nil {
			res.Err = fmt.Errorf("input %d: %w", i+1, err)
			return res
		}
		inputs[i] = e
	}

	switch q.Mode {
	case ModeOnce, "":
		res.Output, res.Err = r.OnceContext(ctx, inputs...)
	case ModeMany:
		if len(inputs) != 1 {
			res.Err = fmt.Errorf("%w: many takes 1 input, got %d", natded.ErrArity, len(inputs))
			return res
		}
		res.Output, res.Err = r.ManyContext(ctx, inputs[0])
	case ModeExplain:
		res.Proof, res.Output, res.Err = r.ExplainContext(ctx, inputs...)
	default:
		res.Err = fmt.Errorf("unknown mode %q", q.Mode)
	}
	return res
}

// Check compares the result with the query's expectation. A query with no
// expectation passes when it succeeded.
func (r Result) Check() error {
	if r.Query.NoRule {
		if errors.Is(r.Err, natded.ErrNoRuleApplies) {
			return nil
		}
		if r.Err != nil {
			return fmt.Errorf("expected no rule to apply, got: %w", r.Err)
		}
		return fmt.Errorf("expected no rule to apply, got %s", r.Output)
	}
	if r.Err != nil {
		return r.Err
	}
	if r.Query.Expect == "" {
		return nil
	}
	want, err := natded.ParseFresh(r.Query.Expect)
	if err != nil {
		return fmt.Errorf("expectation: %w", err)
	}
	if !want.Equal(r.Output) {
		return fmt.Errorf("expected %s, got %s", want, r.Output)
	}
	return nil
}

// Batch evaluates queries on pool and returns their results in input order.
// Query failures are reported per result; the returned error is only set
// when ctx is done or the pool shuts down before every query ran.
func Batch(ctx context.Context, pool *Pool, r *natded.Relation, queries []Query) ([]Result, error) {
	results := make([]Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			return pool.Do(gctx, func() {
				results[i] = Run(gctx, r, q)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
