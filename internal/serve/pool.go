package serve

import (
	"sync"

	"go.uber.org/zap"
)

// ServedConfig is the slice of a view config the serving layer needs:
// per-port server bookkeeping.
type ServedConfig interface {
	HasServer(port int) bool
	RegisterServer(port int, srv *BackgroundServer)
	StopAllServers()
}

// ServerPool tracks every config that has at least one running background
// server, so all of them can be stopped at once. Registration is
// idempotent.
type ServerPool struct {
	mu      sync.Mutex
	configs []ServedConfig
	logger  *zap.Logger
}

// NewServerPool returns an empty pool.
func NewServerPool(logger *zap.Logger) *ServerPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServerPool{logger: logger}
}

// Register adds a config to the pool unless it is already present.
func (p *ServerPool) Register(cfg ServedConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.configs {
		if existing == cfg {
			return
		}
	}
	p.configs = append(p.configs, cfg)
}

// StopAll stops every server attached to every registered config, then
// clears the pool.
func (p *ServerPool) StopAll() {
	p.mu.Lock()
	configs := p.configs
	p.configs = nil
	p.mu.Unlock()

	for _, cfg := range configs {
		cfg.StopAllServers()
	}
	p.logger.Debug("Stopped all data servers", zap.Int("configs", len(configs)))
}

// Len returns the number of registered configs.
func (p *ServerPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.configs)
}

// ServeRoutes starts a background server for the routes on the given port
// unless the config already has one bound there or the route list is
// empty. On success the server is recorded on the config and the config is
// registered in the pool.
func ServeRoutes(pool *ServerPool, cfg ServedConfig, routes []Route, port int, logger *zap.Logger, opts ...ServerOption) error {
	if cfg.HasServer(port) || len(routes) == 0 {
		return nil
	}
	srv := NewBackgroundServer(routes, logger, opts...)
	if err := srv.Start(port); err != nil {
		return err
	}
	cfg.RegisterServer(port, srv)
	pool.Register(cfg)
	return nil
}
