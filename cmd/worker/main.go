package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"keyring/internal/engine/tokens"
	"keyring/internal/pkg/logger"
	"keyring/internal/platform/config"
	"keyring/internal/platform/database"
	"keyring/internal/workers"
)

func main() {
	var (
		configPath string
		once       bool
	)
	cmd := &cobra.Command{
		Use:          "worker",
		Short:        "Run background token maintenance",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Logging)

			db, err := database.NewDB(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			svc := tokens.NewService(tokens.NewRepository(db), cfg, tokens.Limits{
				MaxNameLen:  cfg.Tokens.MaxNameLen,
				MaxDuration: cfg.Tokens.MaxDuration,
			})
			sweep := workers.SweepTokens(svc)

			if once {
				return sweep(cmd.Context())
			}
			log.Info().Msg("starting keyring background workers")
			workers.Run(cmd.Context(), "token-sweep", cfg.Workers.SweepInterval, sweep)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config file")
	cmd.Flags().BoolVar(&once, "once", false, "run a single sweep and exit")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
