package main

import (
	"fmt"
	"os"

	"github.com/artpar/themebake/bootstrap"
	"github.com/artpar/themebake/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the themebake HTTP server.

The server will:
  - Load configuration from themebake.yaml (or --config)
  - Or load configuration from THEMEBAKE_* environment variables
  - Open and migrate the database
  - Serve lookups and theme administration under /api/v1
  - Publish invalidations on /message-bus/file-change
  - Follow configured peers and drop local bakes on their invalidations

Environment variables (for Docker deployments):
  THEMEBAKE_DATABASE_DSN       - Database path (default: themebake.db)
  THEMEBAKE_SERVER_PORT        - Server port (default: 8080)
  THEMEBAKE_COMPILER_MODE      - passthrough or markdown
  THEMEBAKE_BROADCAST_PEERS    - Comma separated peer websocket URLs
  THEMEBAKE_LOG_LEVEL          - Log level: debug, info, warn, error

Examples:
  themebake serve
  themebake serve --config /etc/themebake/config.yaml
  themebake serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if hasConfigFile && hotReload {
		return serveWithHotReload()
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if !hasConfigFile {
		fmt.Println("Running with environment variables (no config file)")
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	return a.Run()
}

func serveWithHotReload() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	holder, err := config.NewHolder(cfgFile, a.Logger)
	if err != nil {
		a.Shutdown()
		return fmt.Errorf("error loading config: %w", err)
	}
	defer holder.Stop()

	a.WatchConfig(holder)
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}
	holder.WatchSignals()

	return a.Run()
}
