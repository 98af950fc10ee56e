package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crossviz/go-viewer-backend/internal/embed"
	"github.com/crossviz/go-viewer-backend/internal/manifest"
	"github.com/crossviz/go-viewer-backend/internal/serve"
	"github.com/crossviz/go-viewer-backend/pkg/config"
	"github.com/crossviz/go-viewer-backend/pkg/logging"
)

var htmlCmd = &cobra.Command{
	Use:   "html",
	Short: "Serve the datasets and print an embeddable HTML fragment",
	Long: `Builds the view config, starts a local data server for its files,
and prints the self-contained HTML/script fragment that renders the
viewer. The server keeps running until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		logger, err := logging.NewLogger(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		vc, err := manifest.Build(cfg)
		if err != nil {
			return err
		}

		resolver := serve.NewPortResolver(cfg.Server.StartPort,
			serve.WithProxyAvailable(cfg.Server.ProxyAvailable))
		pool := serve.NewServerPool(logger)

		opts := []embed.Option{
			embed.WithHeight(cfg.Viewer.Height),
			embed.WithTheme(cfg.Viewer.Theme),
			embed.WithJSPackageVersion(cfg.Viewer.JSPackageVersion),
			embed.WithCustomJSURL(cfg.Viewer.CustomJSURL),
		}
		if cfg.Server.Port != 0 {
			opts = append(opts, embed.WithPort(cfg.Server.Port))
		}
		if cfg.Server.BaseURL != "" {
			opts = append(opts, embed.WithBaseURL(cfg.Server.BaseURL))
		}
		if cfg.Server.Proxy {
			opts = append(opts, embed.WithProxy(cfg.Server.HostName))
		}

		widget, err := embed.NewWidget(vc, resolver, pool, logger, opts...)
		if err != nil {
			return err
		}
		fragment, err := widget.HTML()
		if err != nil {
			return err
		}
		fmt.Println(fragment)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		pool.StopAll()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(htmlCmd)
}
