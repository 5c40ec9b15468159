package natded

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWithoutVariables(t *testing.T) {
	yes, no := kw("true"), kw("false")

	tests := []struct {
		name  string
		input string
		want  Expression
	}{
		{"atom", "true", yes},
		{"atom with surrounding space", "  true \n", yes},
		{"flat conditional", "if false then false else true", conditional(no, no, yes)},
		{"nested conditional", "if (if true then true else false) then false else true",
			conditional(conditional(yes, yes, no), no, yes)},
		{"parentheses around one atom collapse", "((true))", yes},
		{"unicode tokens", "∅ ∈ Г", seq(kw("∅"), kw("∈"), kw("Г"))},
		{"no space needed before parentheses", "succ(pred 0)", seq(kw("succ"), seq(kw("pred"), kw("0")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, NewScope())
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseWithVariables(t *testing.T) {
	scope := NewScope()
	v := func(name string) Expression { return Variable{Name: name, Scope: scope} }
	evaluates := func(before, after Expression) Expression { return seq(before, kw("→"), after) }

	tests := []struct {
		input string
		want  Expression
	}{
		{"(if true then $t₂ else $t₃) → $t₂", evaluates(conditional(kw("true"), v("t₂"), v("t₃")), v("t₂"))},
		{"(if false then _t₂ else _t₃) → _t₃", evaluates(conditional(kw("false"), v("t₂"), v("t₃")), v("t₃"))},
		{"$t₁ → $t₁′", evaluates(v("t₁"), v("t₁′"))},
		{"(if $t₁ then $t₂ else $t₃) → (if $t₁′ then $t₂ else $t₃)",
			evaluates(conditional(v("t₁"), v("t₂"), v("t₃")), conditional(v("t₁′"), v("t₂"), v("t₃")))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input, scope)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		found    string
		expected string
	}{
		{"empty input", "", "", "expression"},
		{"blank input", "   ", "", "expression"},
		{"empty parentheses", "()", ")", "expression"},
		{"unclosed parenthesis", "(if true", "", `")"`},
		{"leftover closing parenthesis", "true)", ")", "end of input"},
		{"marker without name", "$ x", " ", "variable name"},
		{"marker at end", "succ $", "", "variable name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFresh(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.found, perr.Found)
			assert.Equal(t, tt.expected, perr.Expected)
		})
	}

	t.Run("message names the offending character", func(t *testing.T) {
		_, err := ParseFresh("true)")
		require.Error(t, err)
		assert.Equal(t, `natded: unexpected ")" at offset 4, expected end of input`, err.Error())
	})
}

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("$t₁ → $t₁′")
	require.NoError(t, err)

	a := tmpl.Instantiate(NewScope())
	b := tmpl.Instantiate(NewScope())

	assert.Equal(t, "$t₁ → $t₁′", a.String())
	assert.False(t, a.Equal(b), "instantiations in different scopes must differ")

	va, _ := FindVariable(a, "t₁")
	vb, _ := FindVariable(b, "t₁")
	assert.NotEqual(t, va.Scope, vb.Scope)

	same := tmpl.Build(NewBuilder(va.Scope))
	assert.True(t, a.Equal(same))
}

func TestPrintedExpressionsParseBack(t *testing.T) {
	inputs := []string{
		"if (if $t₁ then true else false) then false else true",
		"(a : (Bool → Bool) , ∅) ⊢ (λ x : Bool . (f (if x then false else x))) : $T",
		"pred (succ (succ 0))",
	}
	for _, in := range inputs {
		scope := NewScope()
		e, err := Parse(in, scope)
		require.NoError(t, err)
		again, err := Parse(e.String(), scope)
		require.NoError(t, err)
		assert.True(t, e.Equal(again), "%q reprinted as %q", in, e.String())
	}
}
