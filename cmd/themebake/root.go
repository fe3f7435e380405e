package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artpar/themebake/app"
	"github.com/artpar/themebake/bootstrap"
	"github.com/artpar/themebake/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "themebake",
	Short: "Theme field composition and bake cache",
	Long: `themebake stores themes, composes their fields across included
themes and serves the baked result from a cache that is invalidated
whenever a theme changes.

Quick start:
  themebake serve              # Start the HTTP server
  themebake theme create Dark  # Create a theme
  themebake lookup <key> desktop header

Management:
  themebake theme   # Manage themes and fields
  themebake validate # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "themebake.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

// withThemes runs fn against a theme service built from the configuration,
// without starting the HTTP server.
func withThemes(fn func(ctx context.Context, svc *app.ThemeService) error) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := zerolog.Nop()
	if verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	a, err := bootstrap.NewWithLogger(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Shutdown()

	return fn(context.Background(), a.Themes)
}
