package natded

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kw(name string) Expression { return Keyword{Name: name} }

func seq(parts ...Expression) Expression { return NewSequence(parts...) }

func conditional(c, t, e Expression) Expression {
	return seq(kw("if"), c, kw("then"), t, kw("else"), e)
}

func TestKeyword(t *testing.T) {
	t.Run("equal names are equal", func(t *testing.T) {
		assert.True(t, kw("true").Equal(kw("true")))
		assert.False(t, kw("true").Equal(kw("false")))
	})

	t.Run("a keyword never equals a variable of the same name", func(t *testing.T) {
		assert.False(t, kw("x").Equal(Variable{Name: "x", Scope: 1}))
	})

	t.Run("prints its name", func(t *testing.T) {
		assert.Equal(t, "→", kw("→").String())
	})
}

func TestSequence(t *testing.T) {
	t.Run("single part collapses", func(t *testing.T) {
		assert.Equal(t, kw("true"), NewSequence(kw("true")))
		assert.Nil(t, NewSequence())
	})

	t.Run("equality is pairwise and length sensitive", func(t *testing.T) {
		a := seq(kw("succ"), kw("0"))
		b := seq(kw("succ"), kw("0"))
		c := seq(kw("succ"), kw("0"), kw("0"))
		d := seq(kw("pred"), kw("0"))

		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
		assert.False(t, c.Equal(a))
		assert.False(t, a.Equal(d))
		assert.False(t, a.Equal(kw("succ")))
	})

	t.Run("parts are copied", func(t *testing.T) {
		parts := []Expression{kw("a"), kw("b")}
		s := NewSequence(parts...).(*Sequence)
		parts[0] = kw("z")
		assert.Equal(t, "a b", s.String())

		got := s.Parts()
		got[1] = kw("z")
		assert.Equal(t, "a b", s.String())
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, kw("b"), s.Part(1))
	})

	t.Run("nested sequences print in parentheses", func(t *testing.T) {
		e := conditional(conditional(kw("true"), kw("true"), kw("false")), kw("false"), kw("true"))
		assert.Equal(t, "if (if true then true else false) then false else true", e.String())
	})
}

func TestVariable(t *testing.T) {
	t.Run("equality needs name and scope", func(t *testing.T) {
		a := Variable{Name: "t₁", Scope: 7}
		assert.True(t, a.Equal(Variable{Name: "t₁", Scope: 7}))
		assert.False(t, a.Equal(Variable{Name: "t₁", Scope: 8}))
		assert.False(t, a.Equal(Variable{Name: "t₂", Scope: 7}))
	})

	t.Run("prints with marker", func(t *testing.T) {
		assert.Equal(t, "$t₁′", Variable{Name: "t₁′"}.String())
		assert.Equal(t, "if $t₁ then $t₂ else $t₃",
			conditional(Variable{Name: "t₁"}, Variable{Name: "t₂"}, Variable{Name: "t₃"}).String())
	})
}

func TestFindVariable(t *testing.T) {
	e := MustParse("(if $t₁ then $t₂ else $t₃) → $t₂")

	v, ok := FindVariable(e, "t₂")
	require.True(t, ok)
	assert.Equal(t, "t₂", v.Name)

	_, ok = FindVariable(e, "result")
	assert.False(t, ok)

	assert.False(t, IsGround(e))
	assert.True(t, IsGround(MustParse("if true then false else true")))
}

func TestBuilder(t *testing.T) {
	t.Run("variables carry the builder scope", func(t *testing.T) {
		b := NewBuilder(42)
		assert.Equal(t, Variable{Name: "x", Scope: 42}, b.Variable("x"))
		assert.Equal(t, Scope(42), b.Scope())
	})

	t.Run("fresh builders never share a scope", func(t *testing.T) {
		a, b := FreshBuilder(), FreshBuilder()
		assert.NotEqual(t, a.Scope(), b.Scope())
		assert.NotEqual(t, NoScope, a.Scope())
		assert.False(t, a.Variable("x").Equal(b.Variable("x")))
	})

	t.Run("sequence of one part is that part", func(t *testing.T) {
		b := NewBuilder(1)
		assert.Equal(t, kw("true"), b.Sequence(b.Keyword("true")))
	})
}
