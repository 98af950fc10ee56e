// Command server runs the viewer data server as a daemon: it wraps the
// datasets declared in the manifest, serves their files on a local port,
// and exposes the generated view-config document at /config.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/crossviz/go-viewer-backend/internal/manifest"
	"github.com/crossviz/go-viewer-backend/internal/serve"
	vsync "github.com/crossviz/go-viewer-backend/internal/sync"
	"github.com/crossviz/go-viewer-backend/pkg/config"
	"github.com/crossviz/go-viewer-backend/pkg/logging"
	"github.com/crossviz/go-viewer-backend/pkg/middleware"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	version    = "dev"
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting viewer data server",
		zap.String("version", version),
		zap.Int("objects", len(cfg.Data.Objects)),
	)

	vc, err := manifest.Build(cfg)
	if err != nil {
		logger.Fatal("Failed to build view config", zap.Error(err))
	}

	resolver := serve.NewPortResolver(cfg.Server.StartPort,
		serve.WithProxyAvailable(cfg.Server.ProxyAvailable))
	pool := serve.NewServerPool(logger)

	baseURL, port, err := resolver.Resolve(serve.ResolveOptions{
		Port:     cfg.Server.Port,
		BaseURL:  cfg.Server.BaseURL,
		Proxy:    cfg.Server.Proxy,
		HostName: cfg.Server.HostName,
	})
	if err != nil {
		logger.Fatal("Failed to resolve base URL", zap.Error(err))
	}

	configJSON, err := json.Marshal(vc.ToDict(baseURL))
	if err != nil {
		logger.Fatal("Failed to serialize view config", zap.Error(err))
	}

	hub := vsync.NewHub(logger)
	routes := append(vc.Routes(),
		serve.JSONRoute{RoutePath: "/config", Payload: configJSON},
		hub.Route("/ws/:uid"),
	)

	mw := []gin.HandlerFunc{middleware.Logger(logger)}
	if cfg.Auth.Enabled {
		mw = append(mw, middleware.BearerAuth(cfg.Auth.Secret, logger))
	}

	if err := serve.ServeRoutes(pool, vc, routes, port, logger,
		serve.WithMiddleware(mw...)); err != nil {
		logger.Fatal("Failed to start data server", zap.Error(err))
	}

	fmt.Printf("Serving %d route(s) at %s (config at %s/config)\n",
		len(routes), baseURL, baseURL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down data servers")
	pool.StopAll()
}
