package migrate

import (
	"context"
	"fmt"

	"github.com/athengaudio/storefront/pkg/config"
	"github.com/athengaudio/storefront/pkg/db"
	"github.com/athengaudio/storefront/pkg/logger"
)

// MaybeRunDev prepares the schema when the feature flag is enabled outside
// production. Postgres runs the goose migrations; sqlite has no goose history
// and is built from the GORM models instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.App.IsProd() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	meta := map[string]any{"env": cfg.App.Env, "driver": client.Driver()}
	ctx = logg.WithFields(ctx, meta)

	if client.Driver() == config.DBDriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema")
		if err := client.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("auto-migrating sqlite: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running Goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
