// Command sourcectl runs one-shot searches against the configured sources
// without starting the HTTP service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/offer-sourcing/internal/conf"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sourcectl",
	Short: "Query offer sources from the command line",
	Long: `sourcectl loads the service configuration, fans a buyer intent out to every
enabled source and prints the ranked offers, vendor matches and per-source
statuses.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (defaults and SOURCING_* env when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write service logs")
}

// loadConfig loads the configuration and a logger. Logs are discarded
// unless --verbose is set so that --json output stays parseable.
func loadConfig() (*conf.Config, *logger.Logger, error) {
	cfg, err := conf.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	if !verbose {
		return cfg, logger.NewNop(), nil
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
