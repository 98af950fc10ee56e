// Package cmd contains all CLI commands for vizctl.
package cmd

import (
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "vizctl",
	Short: "View-config tooling for the viewer data server",
	Long: `vizctl builds view-configuration documents from a dataset manifest,
prints them as JSON, and computes hosted-viewer launch URLs.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c",
		"configs/config.yaml", "Path to configuration file")
}
