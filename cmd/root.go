// Package cmd implements the command-line interface for the crawler: the
// HTTP server, one-shot crawl runs, and seed management.
package cmd

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrHbogart/NousNews-Backend/cmd/crawl"
	"github.com/MrHbogart/NousNews-Backend/cmd/seeds"
	"github.com/MrHbogart/NousNews-Backend/cmd/serve"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "nousnews",
		Short: "LLM-assisted news crawler",
		Long:  `A seed-driven news crawler with a durable Postgres frontier and LLM-assisted article extraction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)

	rootCmd.AddCommand(serve.Command(&cfgFile))
	rootCmd.AddCommand(crawl.Command(&cfgFile))
	rootCmd.AddCommand(seeds.Command(&cfgFile))
}
