// Package gateway exposes the admin HTTP surface: health, Prometheus
// metrics, and a small facts API for inspecting and correcting stored
// memory.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tablemind/recall/internal/memory"
)

// Config holds the gateway configuration.
type Config struct {
	// Listen is the address to bind, e.g. "127.0.0.1:8787".
	Listen string

	// AuthToken protects the /api routes with bearer auth. When empty the
	// /api routes are not mounted; health and metrics stay available.
	AuthToken string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) defaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// HealthChecker reports whether an upstream dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Gateway is the admin HTTP server. It is a leaf component — nothing
// imports it.
type Gateway struct {
	config    Config
	store     memory.Store
	engine    *memory.Engine
	provider  HealthChecker // optional
	metrics   *Metrics
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a Gateway over the given store and engine. provider may be
// nil when no upstream health probe is wanted.
func New(cfg Config, store memory.Store, engine *memory.Engine, prov HealthChecker, metrics *Metrics, logger *slog.Logger) (*Gateway, error) {
	cfg.defaults()
	if cfg.Listen == "" {
		return nil, errors.New("gateway: listen address is required")
	}
	if _, err := net.ResolveTCPAddr("tcp", cfg.Listen); err != nil {
		return nil, fmt.Errorf("gateway: invalid listen address %q: %w", cfg.Listen, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Gateway{
		config:   cfg,
		store:    store,
		engine:   engine,
		provider: prov,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Start binds the listen address and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Listen,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Listen)
	if err != nil {
		return fmt.Errorf("gateway: listen: %w", err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Listen)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
