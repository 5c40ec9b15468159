package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitrdm/natded/internal/server"
	"github.com/gitrdm/natded/internal/watch"
	"github.com/gitrdm/natded/pkg/natded"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		timeout  time.Duration
		watching bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the loaded relations over HTTP",
		Long: `serve exposes every loaded relation under /v1/relations/{name}, with
POST endpoints for once, many and explain queries, a health check at
/v1/health and Prometheus metrics at /metrics.

With --watch, rule-set files are reloaded when they change. A reload that
fails keeps the relations being served.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				a.cfg.Server.Addr = addr
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			if !flags.Changed("watch") {
				watching = a.cfg.Watch
			}

			relations, err := a.relations()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := server.New(relations, server.Options{
				Debug:        a.cfg.Server.Debug,
				Workers:      a.cfg.Batch.Workers,
				QueryTimeout: timeout,
				Logger:       a.logger,
			})

			if watching && len(a.cfg.Rules) > 0 {
				w, err := watch.New(a.cfg.Rules, func(changed []string) {
					a.logger.Info("Reloading rules", "changed", changed)
					_ = s.Reload(func() (map[string]*natded.Relation, error) {
						return a.relations()
					})
				}, watch.Options{Logger: a.logger})
				if err != nil {
					return err
				}
				w.Start(ctx)
				defer w.Stop()
			}

			return s.Run(ctx, a.cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overriding the config")
	cmd.Flags().DurationVar(&timeout, "query-timeout", 10*time.Second, "per-query time limit, 0 for none")
	cmd.Flags().BoolVar(&watching, "watch", false, "reload rule files when they change")
	return cmd
}
