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

var launchTheme string

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Serve the datasets and print a hosted-viewer URL",
	Long: `Builds the view config, starts a local data server for its files,
and prints a hosted-viewer URL with the config inlined. The server keeps
running until interrupted.`,
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

		var opts []embed.Option
		if cfg.Server.Port != 0 {
			opts = append(opts, embed.WithPort(cfg.Server.Port))
		}
		if cfg.Server.BaseURL != "" {
			opts = append(opts, embed.WithBaseURL(cfg.Server.BaseURL))
		}
		viewerURL, err := embed.LaunchURL(vc, launchTheme, resolver, pool, logger, opts...)
		if err != nil {
			return err
		}
		fmt.Println(viewerURL)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		pool.StopAll()
		return nil
	},
}

func init() {
	launchCmd.Flags().StringVar(&launchTheme, "theme", "light",
		"Viewer theme: light or dark")
	rootCmd.AddCommand(launchCmd)
}
