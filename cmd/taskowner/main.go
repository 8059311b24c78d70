// Package main implements the taskowner CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "taskowner",
	Short:        "Infer WebODM task owners and explain task access",
	SilenceUsage: true,
}

var (
	configPath  string
	envFilePath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./taskowner.toml if present)")
	rootCmd.PersistentFlags().StringVar(&envFilePath, "env-file", "", "Env file (default ./.env if present)")
}
