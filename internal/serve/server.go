package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BackgroundServer runs a CORS-enabled HTTP application for a set of
// routes on its own goroutine. Start binds the listener synchronously, so
// a nil error means every registered route is reachable; Stop shuts the
// server down gracefully and blocks until the goroutine has exited.
type BackgroundServer struct {
	logger     *zap.Logger
	routes     []Route
	middleware []gin.HandlerFunc

	keepAlive time.Duration

	srv  *http.Server
	port int
	done chan struct{}
}

// ServerOption configures a BackgroundServer.
type ServerOption func(*BackgroundServer)

// WithKeepAlive sets the idle keep-alive timeout for client connections.
func WithKeepAlive(d time.Duration) ServerOption {
	return func(s *BackgroundServer) { s.keepAlive = d }
}

// WithMiddleware prepends extra middleware (e.g. bearer-token auth) to the
// route handlers.
func WithMiddleware(mw ...gin.HandlerFunc) ServerOption {
	return func(s *BackgroundServer) { s.middleware = append(s.middleware, mw...) }
}

// NewBackgroundServer builds an unstarted server over the given routes.
func NewBackgroundServer(routes []Route, logger *zap.Logger, opts ...ServerOption) *BackgroundServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BackgroundServer{
		logger:    logger,
		routes:    routes,
		keepAlive: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the given port and begins serving in the background.
// Calling Start on an already-started server is a no-op. A lost port race
// between probing and binding surfaces here as the bind error; no retry
// with a new port is attempted.
func (s *BackgroundServer) Start(port int) error {
	if s.srv != nil {
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		// Authorization carries the optional data-access token the file
		// definitions attach via requestInit.
		AllowHeaders: []string{"Range", "Authorization"},
	}))
	for _, mw := range s.middleware {
		router.Use(mw)
	}
	for _, route := range s.routes {
		route.Register(router)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return fmt.Errorf("bind port %d: %w", port, err)
	}

	s.port = port
	s.srv = &http.Server{
		Handler:     router,
		IdleTimeout: s.keepAlive,
	}
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Data server error", zap.Int("port", port), zap.Error(err))
		}
	}()

	s.logger.Debug("Data server listening",
		zap.Int("port", port),
		zap.Int("routes", len(s.routes)))
	return nil
}

// Stop requests graceful termination and blocks until the serving
// goroutine has exited. Stopping a server that was never started is a
// no-op.
func (s *BackgroundServer) Stop() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("Data server shutdown", zap.Int("port", s.port), zap.Error(err))
	}
	<-s.done
	s.srv = nil
	s.done = nil
}

// Port returns the bound port, or 0 before Start.
func (s *BackgroundServer) Port() int { return s.port }

// Running reports whether the server has been started and not yet stopped.
func (s *BackgroundServer) Running() bool { return s.srv != nil }
