package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/complaint-service/internal/config"
	"github.com/psds-microservice/complaint-service/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "complaint-service",
	Short:        "Complaint tracking API: complaints, comments, attachments, categories (PSDS)",
	SilenceUsage: true,
	RunE:         runAPI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig читает .env и окружение, проверяет конфигурацию и создаёт логгер.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	return cfg, log, nil
}
