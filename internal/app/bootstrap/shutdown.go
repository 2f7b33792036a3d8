// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the bot and the background workers. The
// maintenance worker performs a final user-database save on Stop, so
// nothing verified during the last interval is lost.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Bot != nil {
		logger.Info("disconnecting Discord bot")
		if err := deps.Bot.Close(); err != nil {
			logger.Error("Discord bot shutdown failed", zap.Error(err))
		}
	}

	deps.StagingExpiry.Stop()
	deps.Maintenance.Stop()

	return nil
}
