// Package server exposes relations over HTTP: one endpoint per query mode,
// a health check, and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gitrdm/natded/internal/parallel"
	"github.com/gitrdm/natded/pkg/natded"
)

// Options configures a Server.
type Options struct {
	// Debug enables gin's debug mode and request logging.
	Debug bool
	// Workers bounds concurrent derivations; zero means one per CPU.
	Workers int
	// QueryTimeout bounds each query; zero means no limit.
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	registry *Registry
	pool     *parallel.Pool
	router   *gin.Engine
	logger   *slog.Logger
}

// New returns a server answering for relations.
func New(relations map[string]*natded.Relation, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		registry: NewRegistry(relations),
		pool:     parallel.NewPool(opts.Workers),
		logger:   opts.Logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	if opts.Debug {
		router.Use(gin.Logger())
	}
	if opts.QueryTimeout > 0 {
		router.Use(timeout(opts.QueryTimeout))
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(s.registry, s.pool, s.logger))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the relations being served.
func (s *Server) Registry() *Registry {
	return s.registry
}

// ErrNoRelations is returned by Reload when the loader returns a nil map.
var ErrNoRelations = errors.New("server: reload returned no relations")

// Reload replaces the served relations. A nil map or a load error keeps the
// current relations.
func (s *Server) Reload(load func() (map[string]*natded.Relation, error)) error {
	relations, err := load()
	if err == nil && relations == nil {
		err = ErrNoRelations
	}
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Reload failed, keeping current rules", "error", err)
		return err
	}
	s.registry.Replace(relations)
	reloadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Rules reloaded", "relations", len(relations))
	return nil
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting natded server", slog.String("address", addr), slog.Int("relations", s.registry.Len()))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.pool.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down natded server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.pool.Shutdown()
	return err
}

// Close releases the worker pool. It is only needed when Run is not used.
func (s *Server) Close() {
	s.pool.Shutdown()
}

func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
