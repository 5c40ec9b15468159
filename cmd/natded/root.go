package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitrdm/natded/internal/config"
	"github.com/gitrdm/natded/internal/parallel"
	"github.com/gitrdm/natded/pkg/natded"
)

// app holds the state shared by every subcommand once the root's
// PersistentPreRunE has run.
type app struct {
	configPath string
	rules      []string
	builtin    []string
	name       string
	logLevel   string
	logFormat  string
	maxDepth   int
	maxSteps   int

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "natded",
		Short: "Run relations defined by natural-deduction rules",
		Long: `natded evaluates relations written as natural-deduction inference rules.

Relations come from the bundled calculi (see "natded rules") and from
rule-set files given with --rules or listed in the config file. A rule-set
file is served under its file name without extension.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (YAML)")
	pf.StringSliceVar(&a.rules, "rules", nil, "rule-set files to load, in addition to the config")
	pf.StringSliceVar(&a.builtin, "builtin", nil, "bundled calculi to load, replacing the config's list")
	pf.StringVar(&a.name, "name", "", `relation tokens for rule files that do not name one, e.g. "⊢ :"`)
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	pf.IntVar(&a.maxDepth, "max-depth", 0, "maximum derivation depth, 0 for unlimited")
	pf.IntVar(&a.maxSteps, "max-steps", 0, "maximum reduction steps for many, 0 for unlimited")

	root.AddCommand(
		newQueryCmd(a, parallel.ModeOnce),
		newQueryCmd(a, parallel.ModeMany),
		newQueryCmd(a, parallel.ModeExplain),
		newCheckCmd(a),
		newTypecheckCmd(a),
		newServeCmd(a),
		newRulesCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the config file and applies flag overrides on top of it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	cfg.Rules = append(cfg.Rules, a.rules...)
	if flags.Changed("builtin") {
		cfg.Builtin = a.builtin
	}
	if flags.Changed("name") {
		cfg.RelationName = natded.Name(strings.Fields(a.name))
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("max-depth") {
		cfg.Limits.MaxDepth = a.maxDepth
	}
	if flags.Changed("max-steps") {
		cfg.Limits.MaxSteps = a.maxSteps
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}

// options returns the relation options every load path applies.
func (a *app) options() []natded.Option {
	return append(a.cfg.Options(), natded.WithLogger(a.logger))
}

// loadRuleFile builds the relation of the rule file at path.
func (a *app) loadRuleFile(path string) (*natded.Relation, error) {
	return config.LoadRelationNamed(path, a.cfg.RelationName, a.options()...)
}

// relations loads every configured relation.
func (a *app) relations() (map[string]*natded.Relation, error) {
	return a.cfg.Relations(a.logger)
}

// relation loads the relation called name. An empty name is accepted when
// exactly one relation is configured.
func (a *app) relation(name string) (*natded.Relation, string, error) {
	all, err := a.relations()
	if err != nil {
		return nil, "", err
	}
	if name == "" {
		if len(all) != 1 {
			return nil, "", fmt.Errorf("%d relations are loaded, choose one with --relation: %s", len(all), strings.Join(sortedNames(all), ", "))
		}
		for n, r := range all {
			return r, n, nil
		}
	}
	r, ok := all[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown relation %q, loaded: %s", name, strings.Join(sortedNames(all), ", "))
	}
	return r, name, nil
}

func sortedNames(m map[string]*natded.Relation) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
