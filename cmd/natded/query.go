package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitrdm/natded/internal/parallel"
)

var queryUsage = map[parallel.Mode]struct{ use, short, example string }{
	parallel.ModeOnce: {
		use:   "once -r RELATION INPUT...",
		short: "Derive the single output of a relation for the given inputs",
		example: `  natded once -r booleans "if false then false else true"
  natded once -r lambda "(f : (Bool → Bool) , ∅)" "f true"`,
	},
	parallel.ModeMany: {
		use:     "many -r RELATION INPUT",
		short:   "Apply a relation repeatedly until no rule applies",
		example: `  natded many -r arithmetic "if (iszero (succ 0)) then (succ (pred 0)) else (pred (succ 0))"`,
	},
	parallel.ModeExplain: {
		use:     "explain -r RELATION INPUT...",
		short:   "Print the derivation tree of a once query",
		example: `  natded explain -r lambda "∅" "λ a : Bool . a"`,
	},
}

func newQueryCmd(a *app, mode parallel.Mode) *cobra.Command {
	var (
		relation string
		timeout  time.Duration
	)
	u := queryUsage[mode]
	cmd := &cobra.Command{
		Use:     u.use,
		Short:   u.short,
		Example: u.example,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, name, err := a.relation(relation)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			res := parallel.Run(ctx, r, parallel.Query{Mode: mode, Inputs: args})
			a.logger.Debug("Query finished", "relation", name, "mode", string(mode), "elapsed", res.Elapsed)
			if res.Err != nil {
				return res.Err
			}

			out := cmd.OutOrStdout()
			if res.Proof != nil {
				fmt.Fprintln(out, res.Proof)
				return nil
			}
			fmt.Fprintln(out, res.Output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&relation, "relation", "r", "", "relation to query (optional when only one is loaded)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long, 0 for no limit")
	return cmd
}
