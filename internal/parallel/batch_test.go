package parallel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/natded/internal/ids"
	"github.com/gitrdm/natded/pkg/calculi"
	"github.com/gitrdm/natded/pkg/natded"
)

func TestRun(t *testing.T) {
	lambda := calculi.MustLoad("lambda")
	ctx := context.Background()

	t.Run("once", func(t *testing.T) {
		res := Run(ctx, lambda, Query{Inputs: []string{"(a : Bool , ∅)", "a"}, Expect: "Bool"})
		require.NoError(t, res.Err)
		assert.Equal(t, "Bool", res.Output.String())
		assert.NoError(t, res.Check())
		assert.True(t, ids.Valid(res.ID))
	})

	t.Run("explicit id is kept", func(t *testing.T) {
		res := Run(ctx, lambda, Query{ID: "q1", Inputs: []string{"∅", "true"}})
		assert.Equal(t, "q1", res.ID)
	})

	t.Run("explain returns a proof", func(t *testing.T) {
		res := Run(ctx, lambda, Query{Mode: ModeExplain, Inputs: []string{"∅", "true"}})
		require.NoError(t, res.Err)
		require.NotNil(t, res.Proof)
		assert.Equal(t, "T-True", res.Proof.Rule.Name())
	})

	t.Run("parse errors name the input", func(t *testing.T) {
		res := Run(ctx, lambda, Query{Inputs: []string{"∅", "(a"}})
		assert.True(t, errors.Is(res.Err, natded.ErrParse))
		assert.Contains(t, res.Err.Error(), "input 2")
	})

	t.Run("many takes one input", func(t *testing.T) {
		res := Run(ctx, lambda, Query{Mode: ModeMany, Inputs: []string{"∅", "a"}})
		assert.True(t, errors.Is(res.Err, natded.ErrArity))
	})

	t.Run("unknown mode", func(t *testing.T) {
		res := Run(ctx, lambda, Query{Mode: "sometimes", Inputs: []string{"∅", "a"}})
		assert.Error(t, res.Err)
	})
}

func TestResultCheck(t *testing.T) {
	arithmetic := calculi.MustLoad("arithmetic")
	ctx := context.Background()

	tests := []struct {
		name  string
		query Query
		ok    bool
	}{
		{"expected normal form", Query{Mode: ModeMany, Inputs: []string{"pred (succ (succ 0))"}, Expect: "succ 0"}, true},
		{"wrong normal form", Query{Mode: ModeMany, Inputs: []string{"pred (succ (succ 0))"}, Expect: "0"}, false},
		{"stuck term", Query{Inputs: []string{"pred (succ (succ true))"}, NoRule: true}, true},
		{"step where none expected", Query{Inputs: []string{"iszero 0"}, NoRule: true}, false},
		{"no expectation", Query{Inputs: []string{"iszero 0"}}, true},
		{"failure without expectation", Query{Inputs: []string{"true"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Run(ctx, arithmetic, tt.query).Check()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestBatchPreservesOrder(t *testing.T) {
	pool := NewPool(4)
	defer pool.Shutdown()

	booleans := calculi.MustLoad("booleans")
	inputs := []string{
		"if false then false else true",
		"if (if true then true else false) then false else true",
		"true",
		"if (if (if true then false else true) then true else false) then false else true",
	}
	want := []string{"true", "false", "true", "true"}

	var queries []Query
	for i := 0; i < 10; i++ {
		for _, in := range inputs {
			queries = append(queries, Query{Mode: ModeMany, Inputs: []string{in}})
		}
	}

	results, err := Batch(context.Background(), pool, booleans, queries)
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	for i, res := range results {
		require.NoError(t, res.Err, "query %d", i)
		assert.Equal(t, want[i%len(want)], res.Output.String(), "query %d", i)
		assert.Equal(t, queries[i].Inputs, res.Query.Inputs)
	}
}

func TestBatchCancelled(t *testing.T) {
	pool := NewPool(1)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Batch(ctx, pool, calculi.MustLoad("booleans"), []Query{{Inputs: []string{"true"}}})
	assert.True(t, errors.Is(err, context.Canceled))
}
