// Package cmd holds the stockdash CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"stockdash/internal/config"
	"stockdash/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stockdash",
	Short: "Stock dashboard API: accounts, live quotes and daily price history",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		return err
	}
	return nil
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultPath, "YAML config file (optional)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
}

func initConfig() error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c

	if err := logger.Init(loggerConfig()); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func loggerConfig() logger.Config {
	return logger.Config{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		FileEnabled:   cfg.Logging.FileEnabled,
		FilePath:      cfg.Logging.FilePath,
		RotationSize:  cfg.Logging.RotationSize,
		RetentionDays: cfg.Logging.RetentionDays,
		ServiceName:   "stockdash",
	}
}
