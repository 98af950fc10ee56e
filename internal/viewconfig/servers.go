package viewconfig

import (
	"sync"

	"github.com/crossviz/go-viewer-backend/internal/serve"
)

// serverTable tracks the background servers started for a config, keyed
// by port, so repeated serialization of the same config never rebinds a
// port it already serves on.
type serverTable struct {
	mu      sync.Mutex
	servers map[int]*serve.BackgroundServer
}

// HasServer reports whether a server is registered for the port.
func (c *Config) HasServer(port int) bool {
	c.servers.mu.Lock()
	defer c.servers.mu.Unlock()
	_, ok := c.servers.servers[port]
	return ok
}

// RegisterServer records a started server for the port.
func (c *Config) RegisterServer(port int, srv *serve.BackgroundServer) {
	c.servers.mu.Lock()
	defer c.servers.mu.Unlock()
	if c.servers.servers == nil {
		c.servers.servers = make(map[int]*serve.BackgroundServer)
	}
	c.servers.servers[port] = srv
}

// StopServer stops and forgets the server bound to the port, if any.
func (c *Config) StopServer(port int) {
	c.servers.mu.Lock()
	srv, ok := c.servers.servers[port]
	if ok {
		delete(c.servers.servers, port)
	}
	c.servers.mu.Unlock()
	if ok {
		srv.Stop()
	}
}

// StopAllServers stops every server attached to this config.
func (c *Config) StopAllServers() {
	c.servers.mu.Lock()
	servers := c.servers.servers
	c.servers.servers = nil
	c.servers.mu.Unlock()
	for _, srv := range servers {
		srv.Stop()
	}
}

var _ serve.ServedConfig = (*Config)(nil)
