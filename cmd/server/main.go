package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/vedran77/minilid/internal/config"
	"github.com/vedran77/minilid/internal/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "minilid",
	Short: "minilid - job applications, recruiter channels and interview scheduling",
	Long: `minilid serves the application lifecycle API: applications move through
applied → interviewing → hired|rejected, engaged applications get a private
recruiter/applicant channel, and interviews are scheduled into that channel.

Available commands:
  serve   - Start the HTTP and WebSocket server
  migrate - Apply pending database migrations

Configuration is read from --config (optional) and the environment
(SERVER_PORT, DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE,
JWT_SECRET, TOKEN_TTL, LOG_JSON, MESSAGE_RATE_PER_SECOND, MESSAGE_RATE_BURST,
MESSAGE_RATE_IDLE).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (toml, yaml or json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads configuration and initializes the global logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.LogJSON); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
