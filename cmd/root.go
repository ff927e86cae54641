package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sector-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sector-engine",
	Short: "Sector and value-chain classification engine for listed companies",
	Long:  "Parses filing segment tables, runs the rule/embedding/validator ensemble with relationship boosting, and persists auditable sector assignments.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
