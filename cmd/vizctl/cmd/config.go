package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/crossviz/go-viewer-backend/internal/manifest"
	"github.com/crossviz/go-viewer-backend/pkg/config"
)

var configBaseURL string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the view-config document as JSON",
	Long: `Builds the view config from the dataset manifest and prints it,
with file URLs resolved against the given base URL. No server is started.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		vc, err := manifest.Build(cfg)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(vc.ToDict(configBaseURL), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	configCmd.Flags().StringVar(&configBaseURL, "base-url",
		"http://localhost:8000", "Base URL to resolve file URLs against")
	rootCmd.AddCommand(configCmd)
}
