// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/chorushub/chorushub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after the backends are
// built and the directory layout exists, but before the HTTP handler is
// built. It loads the configuration tree, starts the background workers,
// and connects the Discord bot.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.ConfigureFromEnv()

	if err := deps.Config.LoadAll(); err != nil {
		return fmt.Errorf("load configuration tree: %w", err)
	}
	logger.Info("configuration loaded",
		zap.String("data_path", appCfg.DataPath),
		zap.Int("seasons", deps.Config.SeasonCount()))

	deps.StagingExpiry.Start()
	deps.Maintenance.Start()

	if deps.Bot != nil {
		if err := deps.Bot.Start(); err != nil {
			return fmt.Errorf("start Discord bot: %w", err)
		}
		logger.Info("Discord bot connected", zap.String("guild_id", appCfg.DiscordGuildID))
	}

	return nil
}
