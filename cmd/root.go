package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hireloop/talent-search/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "talent-search",
	Short: "Recruiter-facing candidate search engine",
	Long:  "Translates natural-language recruiter queries into SQL, classifies and ranks candidates with LLMs, and serves saved searches over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Local development convenience; missing .env is not an error.
		_ = godotenv.Load()

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
