// Package app implements the upmail commands.
package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/upmail/upmail/internal/config"
	"github.com/upmail/upmail/internal/logger"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "upmail",
		Short: "upMail relays transactional email through the uptools API",
		Long: `upMail hands messages to a transactional email API, logs every attempt
and provides an admin UI for the API key, the sender settings and the email log.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "directory of main.toml")
}

// loadConfig reads the configuration and initializes the global logger.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err //nolint:wrapcheck
	}

	return logger.Init(cfg.Log) //nolint:wrapcheck
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background()) //nolint:wrapcheck
}
