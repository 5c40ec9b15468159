package natded

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Relation is a named judgment or reduction over a Definition. Its name is
// one or more keyword tokens: "→" for a reduction t → t′, "⊢" and ":" for a
// typing judgment Г ⊢ t : T. A query supplies one input per token and the
// relation derives the value in the final position.
//
// A Relation is immutable after construction and safe for concurrent use.
type Relation struct {
	name       []string
	definition *Definition
	maxDepth   int
	maxSteps   int
	trace      bool
	logger     *slog.Logger
}

// Option configures a Relation.
type Option func(*Relation)

// WithMaxDepth bounds the nesting of premises in a derivation. Exceeding it
// fails the query with ErrDepthExceeded. Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(r *Relation) { r.maxDepth = n }
}

// WithMaxSteps bounds the number of Once steps Many takes. Reaching it fails
// with ErrStepLimit. Zero means unlimited.
func WithMaxSteps(n int) Option {
	return func(r *Relation) { r.maxSteps = n }
}

// WithLogger sets the logger for query and trace records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relation) { r.logger = logger }
}

// WithTrace enables derivation tracing for this relation.
func WithTrace(enabled bool) Option {
	return func(r *Relation) { r.trace = enabled }
}

// NewRelation returns a relation named by the given tokens.
func NewRelation(name []string, definition *Definition, opts ...Option) *Relation {
	r := &Relation{
		name:       append([]string(nil), name...),
		definition: definition,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define parses rules once and returns the relation over them.
func Define(name []string, rules []RuleDefinition, opts ...Option) (*Relation, error) {
	if len(name) == 0 {
		return nil, errors.New("natded: relation name must have at least one token")
	}
	d, err := DefineRules(rules)
	if err != nil {
		return nil, fmt.Errorf("relation %s: %w", strings.Join(name, " "), err)
	}
	return NewRelation(name, d, opts...), nil
}

// With returns a copy of r with opts applied.
func (r *Relation) With(opts ...Option) *Relation {
	c := *r
	c.name = append([]string(nil), r.name...)
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Name returns the relation's tokens.
func (r *Relation) Name() []string {
	return append([]string(nil), r.name...)
}

// Symbol returns the tokens joined by spaces, e.g. "⊢ :".
func (r *Relation) Symbol() string {
	return strings.Join(r.name, " ")
}

// Arity returns the number of inputs a query takes.
func (r *Relation) Arity() int {
	return len(r.name)
}

// Definition returns the rules behind the relation.
func (r *Relation) Definition() *Definition {
	return r.definition
}

// Goal builds the query formula for inputs: each input followed by the
// matching name token, then a fresh output variable from b.
func (r *Relation) Goal(b *Builder, inputs ...Expression) (Expression, Variable, error) {
	if len(inputs) != len(r.name) {
		return nil, Variable{}, fmt.Errorf("%w: relation %q takes %d, got %d", ErrArity, r.Symbol(), len(r.name), len(inputs))
	}
	output := Variable{Name: "output", Scope: b.Scope()}
	parts := make([]Expression, 0, 2*len(inputs)+1)
	for i, in := range inputs {
		parts = append(parts, in, b.Keyword(r.name[i]))
	}
	parts = append(parts, output)
	return b.Sequence(parts...), output, nil
}

// Once derives the single output related to inputs. It fails with
// ErrNoRuleApplies when there is no derivation and with a
// *NondeterministicError when there is more than one; it never picks one of
// several candidates.
func (r *Relation) Once(inputs ...Expression) (Expression, error) {
	return r.OnceContext(context.Background(), inputs...)
}

// OnceContext is like Once but gives up with ctx.Err() when ctx is done.
func (r *Relation) OnceContext(ctx context.Context, inputs ...Expression) (Expression, error) {
	out, _, err := r.query(ctx, inputs, false)
	return out, err
}

// Explain is like Once but also returns the derivation tree.
func (r *Relation) Explain(inputs ...Expression) (*Proof, Expression, error) {
	return r.ExplainContext(context.Background(), inputs...)
}

// ExplainContext is like Explain but gives up with ctx.Err() when ctx is done.
func (r *Relation) ExplainContext(ctx context.Context, inputs ...Expression) (*Proof, Expression, error) {
	out, proof, err := r.query(ctx, inputs, true)
	return proof, out, err
}

// Many applies Once repeatedly until no rule applies and returns the last
// value: the input itself if not even one step was possible. Only
// ErrNoRuleApplies ends the iteration; any other error is returned as is.
// Many only accepts relations with a single name token.
func (r *Relation) Many(input Expression) (Expression, error) {
	return r.ManyContext(context.Background(), input)
}

// ManyContext is like Many but gives up with ctx.Err() when ctx is done.
func (r *Relation) ManyContext(ctx context.Context, input Expression) (Expression, error) {
	current := input
	for steps := 0; ; steps++ {
		if r.maxSteps > 0 && steps >= r.maxSteps {
			return nil, fmt.Errorf("%w: %d steps from %q", ErrStepLimit, r.maxSteps, input.String())
		}
		next, err := r.OnceContext(ctx, current)
		if errors.Is(err, ErrNoRuleApplies) {
			r.debug(ctx, "normal form reached", slog.String("relation", r.Symbol()), slog.Int("steps", steps))
			return current, nil
		}
		if err != nil {
			return nil, err
		}
		current = next
	}
}

func (r *Relation) query(ctx context.Context, inputs []Expression, proofs bool) (Expression, *Proof, error) {
	b := FreshBuilder()
	goal, output, err := r.Goal(b, inputs...)
	if err != nil {
		return nil, nil, err
	}

	s := &search{
		ctx:        ctx,
		definition: r.definition,
		maxDepth:   r.maxDepth,
		proofs:     proofs,
		trace:      r.trace,
		logger:     r.logger,
	}
	ds, err := s.derive(goal, NewState(), 0)
	if err != nil {
		return nil, nil, err
	}
	r.debug(ctx, "query", slog.String("goal", goal.String()), slog.Int("derivations", len(ds)))

	switch len(ds) {
	case 0:
		return nil, nil, fmt.Errorf("%w: %s", ErrNoRuleApplies, goal)
	case 1:
		state := ds[0].state
		return state.ValueOf(output), ds[0].proof.resolve(state), nil
	default:
		return nil, nil, &NondeterministicError{
			Goal:        goal,
			Candidates:  distinctOutputs(ds, output),
			Derivations: len(ds),
		}
	}
}

func (r *Relation) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if r.logger == nil {
		return
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func distinctOutputs(ds []derivation, output Variable) []Expression {
	var out []Expression
	for _, d := range ds {
		v := d.state.ValueOf(output)
		seen := false
		for _, o := range out {
			if o.Equal(v) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return out
}
