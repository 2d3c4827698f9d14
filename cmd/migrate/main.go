package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"keyring/internal/pkg/logger"
	"keyring/internal/platform/config"
	"keyring/internal/platform/database"
)

func main() {
	var configPath, dir string
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply SQL migrations to the token database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Logging)

			if dir == "" {
				dir = cfg.Database.MigrationsPath
			}

			db, err := database.NewDB(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db, dir); err != nil {
				return err
			}
			log.Info().Str("dir", dir).Msg("migration completed successfully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config file")
	cmd.Flags().StringVar(&dir, "dir", "", "migration directory (defaults to database.migrations_path)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
