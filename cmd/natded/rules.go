package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gitrdm/natded/pkg/calculi"
	"github.com/gitrdm/natded/pkg/natded"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the loaded relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			relations, err := a.relations()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tRELATION\tRULES\tSOURCE")
			for _, name := range sortedNames(relations) {
				r := relations[name]
				source := a.ruleFile(name)
				if c, ok := calculi.Lookup(name); ok && source == "" {
					source = "bundled: " + c.Description
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", name, r.Symbol(), r.Definition().Len(), source)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(newRulesShowCmd(a))
	return cmd
}

func newRulesShowCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print the rules of a relation",
		Example: `  natded rules show booleans
  natded rules show lambda --yaml > stlc.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			out := cmd.OutOrStdout()

			if asYAML {
				rs, err := a.ruleSet(name)
				if err != nil {
					return err
				}
				data, err := rs.Marshal()
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			r, _, err := a.relation(name)
			if err != nil {
				return err
			}
			for i, rule := range r.Definition().Rules() {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, rule)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the rule set in rule-set file form")
	return cmd
}

// ruleSet returns the rule set behind relation name, from its rule file or
// the bundled calculi.
func (a *app) ruleSet(name string) (*natded.RuleSet, error) {
	if path := a.ruleFile(name); path != "" {
		return natded.LoadRuleSet(path)
	}
	return calculi.RuleSet(name)
}
