package bootstrap

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"keyring/internal/platform/auth"
	"keyring/internal/platform/config"
	"keyring/internal/platform/models"
	"keyring/internal/platform/repositories"
)

// Seed installs default options and the root account on a fresh database.
// Existing rows are left untouched.
func Seed(ctx context.Context, cfg *config.Config, users *repositories.UserRepository, options *repositories.OptionRepository) error {
	defaults := map[string]bool{
		models.OptionModelRatioEnabled:       cfg.Options.ModelRatioEnabled,
		models.OptionBillingByRequestEnabled: cfg.Options.BillingByRequestEnabled,
		models.OptionUserGroupEnabled:        cfg.Options.UserGroupEnabled,
	}
	for key, value := range defaults {
		if err := options.SeedDefault(ctx, key, strconv.FormatBool(value)); err != nil {
			return err
		}
	}

	if cfg.Admin.Username == "" {
		return nil
	}
	existing, err := users.GetByUsername(ctx, cfg.Admin.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		return err
	}
	group := cfg.Admin.Group
	if group == "" {
		group = models.DefaultGroup
	}
	root := &models.User{
		Username:     cfg.Admin.Username,
		PasswordHash: hash,
		DisplayName:  "Root User",
		Role:         models.RoleRootUser,
		Group:        group,
	}
	if err := users.Create(ctx, root); err != nil {
		return err
	}
	log.Info().Str("username", root.Username).Msg("created root user")
	return nil
}
