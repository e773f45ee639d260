// Package server exposes the generator catalog and step sequences as a JSON
// HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/registry"
	"github.com/san-kum/stepviz/internal/runner"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	reg    *registry.Registry
	cfg    *config.Config
	runner *runner.Runner
	log    *logging.Logger
	now    func() time.Time
	engine *gin.Engine
}

func New(reg *registry.Registry, cfg *config.Config, r *runner.Runner, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NopLogger()
	}
	if r == nil {
		r = runner.New(runner.WithLogger(log))
	}
	s := &Server{
		reg:    reg,
		cfg:    cfg,
		runner: r,
		log:    log.WithComponent("server"),
		now:    time.Now,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)

		algorithms := api.Group("/algorithms")
		{
			algorithms.GET("", s.listAlgorithms)
			algorithms.GET("/:id", s.getAlgorithm)
		}

		steps := api.Group("/steps")
		{
			steps.GET("/:id", s.getSteps)
			steps.POST("/:id", s.postSteps)
		}
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
