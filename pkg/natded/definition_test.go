package natded

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	booleanSyntax = []RuleDefinition{
		{Conclusion: "true ∈ T"},
		{Conclusion: "false ∈ T"},
		{Premises: []string{"_t₁ ∈ T", "_t₂ ∈ T", "_t₃ ∈ T"}, Conclusion: "(if _t₁ then _t₂ else _t₃) ∈ T"},
	}

	booleanSemantics = []RuleDefinition{
		{Name: "E-IfTrue", Premises: []string{"_t₂ ∈ T", "_t₃ ∈ T"}, Conclusion: "(if true then _t₂ else _t₃) → _t₂"},
		{Name: "E-IfFalse", Premises: []string{"_t₂ ∈ T", "_t₃ ∈ T"}, Conclusion: "(if false then _t₂ else _t₃) → _t₃"},
		{
			Name:       "E-If",
			Premises:   []string{"_t₁ → _t₁′", "_t₁ ∈ T", "_t₂ ∈ T", "_t₃ ∈ T", "_t₁′ ∈ T"},
			Conclusion: "(if _t₁ then _t₂ else _t₃) → (if _t₁′ then _t₂ else _t₃)",
		},
	}

	arithmeticSyntax = []RuleDefinition{
		{Conclusion: "0 ∈ T"},
		{Premises: []string{"_t₁ ∈ T"}, Conclusion: "(succ _t₁) ∈ T"},
		{Premises: []string{"_t₁ ∈ T"}, Conclusion: "(pred _t₁) ∈ T"},
		{Premises: []string{"_t₁ ∈ T"}, Conclusion: "(iszero _t₁) ∈ T"},
		{Conclusion: "0 ∈ NV"},
		{Premises: []string{"_nv₁ ∈ NV"}, Conclusion: "(succ _nv₁) ∈ NV"},
	}

	arithmeticSemantics = []RuleDefinition{
		{Premises: []string{"_t₁ → _t₁′", "_t₁ ∈ T", "_t₁′ ∈ T"}, Conclusion: "(succ _t₁) → (succ _t₁′)"},
		{Conclusion: "(pred 0) → 0"},
		{Premises: []string{"_nv₁ ∈ NV"}, Conclusion: "(pred (succ _nv₁)) → _nv₁"},
		{Premises: []string{"_t₁ → _t₁′", "_t₁ ∈ T", "_t₁′ ∈ T"}, Conclusion: "(pred _t₁) → (pred _t₁′)"},
		{Conclusion: "(iszero 0) → true"},
		{Premises: []string{"_nv₁ ∈ NV"}, Conclusion: "(iszero (succ _nv₁)) → false"},
		{Premises: []string{"_t₁ → _t₁′", "_t₁ ∈ T", "_t₁′ ∈ T"}, Conclusion: "(iszero _t₁) → (iszero _t₁′)"},
	}
)

func concatRules(sets ...[]RuleDefinition) []RuleDefinition {
	var out []RuleDefinition
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func mustDefinition(t *testing.T, defs ...[]RuleDefinition) *Definition {
	t.Helper()
	d, err := DefineRules(concatRules(defs...))
	require.NoError(t, err)
	return d
}

func resultOf(t *testing.T, formula Expression) Variable {
	t.Helper()
	v, ok := FindVariable(formula, "result")
	require.True(t, ok)
	return v
}

func TestDefinitionMatchRules(t *testing.T) {
	d := mustDefinition(t, booleanSyntax, booleanSemantics)

	t.Run("two rules match a conditional on false", func(t *testing.T) {
		formula := MustParse("(if false then false else true) → _result")
		matches := d.MatchRules(formula, NewState())
		require.Len(t, matches, 2)
		assert.Equal(t, "E-IfFalse", matches[0].Rule.Name())
		assert.Equal(t, "true", matches[0].State.ValueOf(resultOf(t, formula)).String())
	})

	t.Run("a nested conditional only matches the congruence rule", func(t *testing.T) {
		formula := MustParse("(if (if true then true else false) then false else true) → _result")
		result := resultOf(t, formula)

		matches := d.MatchRules(formula, NewState())
		require.Len(t, matches, 1)
		match := matches[0]
		assert.Equal(t, "if $t₁′ then false else true", match.State.ValueOf(result).String())
		require.Len(t, match.Premises, 5)

		matches = d.MatchRules(match.Premises[0], match.State)
		require.Len(t, matches, 2)
		match = matches[0]
		assert.Equal(t, "if true then false else true", match.State.ValueOf(result).String())
		assert.Len(t, match.Premises, 2)
	})
}

func TestDefinitionDerive(t *testing.T) {
	d := mustDefinition(t, booleanSyntax, booleanSemantics)

	step := func(t *testing.T, term Expression) Expression {
		t.Helper()
		formula := seq(term, kw("→"), MustParse("_result"))
		states := d.Derive(formula, NewState())
		require.Len(t, states, 1, "derivations of %s", formula)
		return states[0].ValueOf(resultOf(t, formula))
	}

	tests := []struct {
		name  string
		input string
		steps []string
	}{
		{"one step", "if false then false else true", []string{"true"}},
		{"two steps", "if (if true then true else false) then false else true",
			[]string{"if true then false else true", "false"}},
		{"three steps", "if (if (if true then false else true) then true else false) then false else true",
			[]string{"if (if false then true else false) then false else true", "if false then false else true", "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := MustParse(tt.input)
			for _, want := range tt.steps {
				term = step(t, term)
				assert.Equal(t, want, term.String())
			}
		})
	}

	t.Run("values do not step", func(t *testing.T) {
		assert.Empty(t, d.Derive(MustParse("true → _result"), NewState()))
	})

	t.Run("syntax membership", func(t *testing.T) {
		assert.Len(t, d.Derive(MustParse("(if true then false else true) ∈ T"), NewState()), 1)
		assert.Empty(t, d.Derive(MustParse("(if true then hello else true) ∈ T"), NewState()))
	})

	t.Run("nil state is empty", func(t *testing.T) {
		assert.Len(t, d.Derive(MustParse("true ∈ T"), nil), 1)
	})
}

func TestDefinitionDeriveContext(t *testing.T) {
	d := mustDefinition(t, booleanSyntax, booleanSemantics)

	t.Run("cancelled context stops the search", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := d.DeriveContext(ctx, MustParse("true ∈ T"), NewState())
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("live context derives", func(t *testing.T) {
		states, err := d.DeriveContext(context.Background(), MustParse("(if false then true else false) → _result"), NewState())
		require.NoError(t, err)
		assert.Len(t, states, 1)
	})
}

func TestDefinitionAccessors(t *testing.T) {
	d := mustDefinition(t, booleanSyntax)
	assert.Equal(t, 3, d.Len())
	rules := d.Rules()
	rules[0] = nil
	assert.NotNil(t, d.Rules()[0])

	_, err := DefineRules([]RuleDefinition{{Conclusion: "ok"}, {Conclusion: "(bad"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 2:")
}
