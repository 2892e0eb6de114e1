package migrate

import (
	"context"
	"fmt"
	"io"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// MaybeRunDev brings a dev database up to date when the API boots with
// FREIGHTQUOTE_AUTO_MIGRATE set. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	versions, err := Versions(DefaultDir)
	if err != nil {
		return fmt.Errorf("checking migrations: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrapping sql.DB: %w", err)
	}

	fields := map[string]any{"dir": DefaultDir, "migrations": len(versions)}
	if len(versions) > 0 {
		fields["latest"] = versions[len(versions)-1].Version
	}
	ctx = logg.WithFields(ctx, fields)
	if err := Run(ctx, sqlDB, DefaultDir, "up", io.Discard); err != nil {
		return err
	}
	logg.Info(ctx, "dev database migrated")
	return nil
}
