package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gitrdm/natded/internal/config"
	"github.com/gitrdm/natded/internal/tui"
	"github.com/gitrdm/natded/internal/watch"
	"github.com/gitrdm/natded/pkg/natded"
)

func newTypecheckCmd(a *app) *cobra.Command {
	var (
		relation string
		watching bool
	)
	cmd := &cobra.Command{
		Use:   "typecheck",
		Short: "Typecheck terms interactively against a context",
		Long: `typecheck opens a form with a typing context and a term, and shows the
type derived for the term as you edit either field.

The relation must take two inputs, like the bundled "lambda" calculus
(⊢ :). Rule files that are a bare list of rules are read as a ⊢ :
relation unless --name says otherwise. When the relation comes from a
rule-set file, --watch reloads it whenever the file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, name, err := a.typecheckRelation(relation)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("watch") {
				watching = a.cfg.Watch
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
			defer stop()

			var reloads chan tui.ReloadMsg
			if path := a.ruleFile(name); watching && path != "" {
				reloads = make(chan tui.ReloadMsg, 1)
				w, err := watch.New([]string{path}, func([]string) {
					next, err := a.loadRuleFile(path)
					select {
					case reloads <- tui.ReloadMsg{Relation: next, Err: err}:
					case <-ctx.Done():
					}
				}, watch.Options{Logger: a.logger})
				if err != nil {
					return err
				}
				w.Start(ctx)
				defer w.Stop()
			}

			return tui.Run(ctx, r, reloads)
		},
	}
	cmd.Flags().StringVarP(&relation, "relation", "r", "lambda", "two-input relation to typecheck with")
	cmd.Flags().BoolVar(&watching, "watch", false, "reload the relation's rule file when it changes")
	return cmd
}

// typingName names the relation of unnamed rule files opened by typecheck.
var typingName = natded.Name{"⊢", ":"}

// typecheckRelation loads the two-input relation called name. Rule files
// that do not name their relation are read as typing relations.
func (a *app) typecheckRelation(name string) (*natded.Relation, string, error) {
	if len(a.cfg.RelationName) == 0 {
		a.cfg.RelationName = typingName
	}
	r, name, err := a.relation(name)
	if err != nil {
		return nil, "", err
	}
	if r.Arity() != 2 {
		return nil, "", fmt.Errorf("%w: relation %s (%s) takes %d inputs, typecheck needs 2", natded.ErrArity, name, r.Symbol(), r.Arity())
	}
	return r, name, nil
}

// ruleFile returns the configured rule file that relation name was loaded
// from, or "" for a bundled calculus.
func (a *app) ruleFile(name string) string {
	for _, path := range a.cfg.Rules {
		if config.RuleFileName(path) == name {
			return path
		}
	}
	return ""
}
