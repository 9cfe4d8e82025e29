package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"warehouse-backend/internal/config"
	"warehouse-backend/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger

	rootCmd = &cobra.Command{
		Use:           "warehousectl",
		Short:         "Operator tooling for the warehouse backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			log, err = logger.New(logger.Options{
				Development: !cfg.IsProduction(),
				Level:       cfg.LogLevel,
				Encoding:    "console",
			})
			return err
		},
	}
)

func main() {
	rootCmd.AddCommand(migrateCmd, userCmd, bomCmd, integrityCmd)
	userCmd.AddCommand(userCreateCmd)
	bomCmd.AddCommand(bomCheckCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
