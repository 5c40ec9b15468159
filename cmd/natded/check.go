package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitrdm/natded/internal/parallel"
	"github.com/gitrdm/natded/pkg/natded"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		relation string
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Run the queries of check files and compare them with their expectations",
		Long: `check runs every query of each check file on a worker pool and reports
which ones produced a different output than expected.

A check file names the relation to run against, either a loaded relation or
a rule-set file, and lists the queries:

  relation: lambda
  queries:
    - inputs: ["(a : Bool , ∅)", "a"]
      expect: Bool
    - inputs: ["∅", "a"]
      no_rule: true`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Batch.Workers
			}
			pool := parallel.NewPool(workers)
			defer pool.Shutdown()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			out := cmd.OutOrStdout()
			var passed, failed int
			for _, path := range args {
				p, f, err := a.runCheckFile(ctx, pool, path, relation, out)
				if err != nil {
					return err
				}
				passed += p
				failed += f
			}

			fmt.Fprintf(out, "%d passed, %d failed\n", passed, failed)
			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&relation, "relation", "r", "", "relation to check against, overriding the files")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent queries, 0 for one per CPU")
	return cmd
}

func (a *app) runCheckFile(ctx context.Context, pool *parallel.Pool, path, relation string, out io.Writer) (passed, failed int, err error) {
	cf, err := parallel.LoadCheckFile(path)
	if err != nil {
		return 0, 0, err
	}

	var r *natded.Relation
	switch {
	case relation != "":
		r, _, err = a.relation(relation)
	case cf.Rules != "":
		r, err = a.loadRuleFile(cf.Rules)
	default:
		r, _, err = a.relation(cf.Relation)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", path, err)
	}

	results, err := parallel.Batch(ctx, pool, r, cf.Queries)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(out, "%s (%s)\n", path, r.Symbol())
	for _, res := range results {
		inputs := strings.Join(res.Query.Inputs, " , ")
		if err := res.Check(); err != nil {
			failed++
			fmt.Fprintf(out, "  FAIL %s: %v\n", inputs, err)
			continue
		}
		passed++
		a.logger.Debug("Check passed", "file", path, "inputs", inputs, "elapsed", res.Elapsed)
		if res.Err != nil {
			fmt.Fprintf(out, "  ok   %s: no rule applies\n", inputs)
		} else {
			fmt.Fprintf(out, "  ok   %s => %s\n", inputs, res.Output)
		}
	}
	return passed, failed, nil
}
