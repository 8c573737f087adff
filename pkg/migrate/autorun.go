package migrate

import (
	"context"

	"github.com/dealboard/dealboard-backend/pkg/config"
	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot, but only in dev and only
// with DEALBOARD_FEATURE_AUTO_MIGRATE set. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	pool, err := client.SQLDB()
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "migrate.dev_autorun_start")
	if err := Run(ctx, pool, "", "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.dev_autorun_complete")
	return nil
}
