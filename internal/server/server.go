package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wudi/reqrouter/internal/config"
	"github.com/wudi/reqrouter/internal/forward"
	"github.com/wudi/reqrouter/internal/interceptor"
	"github.com/wudi/reqrouter/internal/logging"
	"github.com/wudi/reqrouter/internal/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server hosts the intercepted endpoint and the optional admin listener.
type Server struct {
	cfg         *config.Config
	provider    config.Provider
	watcher     *config.Watcher
	redisStore  *config.RedisStore
	interceptor *interceptor.Interceptor
	registry    *prometheus.Registry
	httpServer  *http.Server
	adminServer *http.Server
	version     string
}

// New creates a Server from configuration. configPath, when non-empty,
// enables hot reload of the routing section; it is ignored when the Redis
// store is enabled (the store is re-read per request instead).
func New(cfg *config.Config, configPath, version string) (*Server, error) {
	s := &Server{cfg: cfg, version: version}

	if cfg.Redis.Enabled {
		s.redisStore = config.NewRedisStore(cfg.Redis)
		s.provider = config.NewStoreProvider(s.redisStore)
		logging.Info("routing store: redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		cached := config.NewCachedProvider(config.ParseRouting(cfg.Routing))
		if configPath != "" {
			watcher, err := config.NewWatcher(configPath)
			if err != nil {
				return nil, err
			}
			watcher.OnChange(func(newCfg *config.Config) {
				cached.Update(config.ParseRouting(newCfg.Routing))
			})
			if err := watcher.Start(); err != nil {
				watcher.Stop()
				return nil, err
			}
			s.watcher = watcher
		}
		s.provider = cached
	}

	s.registry = prometheus.NewRegistry()
	s.interceptor = interceptor.New(interceptor.Config{
		Provider:   s.provider,
		Forwarder:  forward.New(),
		Metrics:    interceptor.NewMetrics(s.registry),
		Mismatches: interceptor.NewMismatchStore(0),
	})

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Recovery(),
		s.interceptor.Middleware(),
	)

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           chain.Then(NewLegacyProxy(s.provider)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Admin.Enabled {
		s.adminServer = &http.Server{
			Addr:         cfg.Admin.Listen,
			Handler:      s.adminHandler(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
	}

	return s, nil
}

// Handler returns the main listener's handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the listeners and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("listening", zap.String("addr", s.cfg.Listen))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if s.adminServer != nil {
		g.Go(func() error {
			logging.Info("admin listening", zap.String("addr", s.cfg.Admin.Listen))
			if err := s.adminServer.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logging.Info("shutting down gracefully")
		return s.Shutdown(30 * time.Second)
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the listeners and releases resources.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			logging.Error("admin server shutdown error", zap.Error(err))
		}
	}

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logging.Error("server shutdown error", zap.Error(err))
	}

	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.redisStore != nil {
		s.redisStore.Close()
	}

	logging.Info("server shutdown complete")
	return err
}
