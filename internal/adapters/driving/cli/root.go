// Package cli provides the cobra command tree for the pressvec CLI.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pressvec/pressvec-cli/internal/adapters/driven/config/file"
	"github.com/pressvec/pressvec-cli/internal/adapters/driven/factory"
	"github.com/pressvec/pressvec-cli/internal/adapters/driven/settings"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driving"
	"github.com/pressvec/pressvec-cli/internal/core/services"
	"github.com/pressvec/pressvec-cli/internal/logger"
)

var (
	configFlag      string
	verboseFlag     bool
	concurrencyFlag int

	// orchestrator is built in initServices; tests inject a mock.
	orchestrator driving.PipelineOrchestrator
)

var rootCmd = &cobra.Command{
	Use:   "pressvec",
	Short: "Sync WordPress content into a vector index",
	Long: `pressvec keeps a remote vector index synchronized with the published
content of a WordPress site: it fetches documents, chunks them, generates
embeddings and upserts the vectors, and can reconcile vectors whose source
documents were deleted.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"config file (default ~/.pressvec/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"verbose logging to stderr")
	rootCmd.PersistentFlags().IntVar(&concurrencyFlag, "concurrency", 0,
		"documents processed concurrently (overrides config)")
}

// initServices wires the orchestrator from local configuration. Tests
// bypass it by pre-setting the orchestrator.
func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	if orchestrator != nil {
		return nil
	}
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	// Best effort; a missing .env is fine.
	_ = godotenv.Load()

	path := configFlag
	if path == "" {
		var err error
		path, err = file.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}

	cfg, err := file.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if concurrencyFlag > 0 {
		cfg.Concurrency = concurrencyFlag
	}

	orchestrator = services.NewOrchestrator(
		settings.NewHTTPSource(cfg.SettingsURL),
		factory.New(cfg),
		services.WithConcurrency(cfg.Concurrency),
	)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
