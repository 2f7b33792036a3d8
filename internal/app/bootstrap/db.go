// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chorushub/chorushub/internal/app/discord"
	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/store/staging"
	"github.com/chorushub/chorushub/internal/app/store/userdb"
	"github.com/chorushub/chorushub/internal/app/system/logbuffer"
	"github.com/chorushub/chorushub/internal/app/system/verify"
	"github.com/chorushub/chorushub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// userDatabaseFile is the persisted user database inside StatePath.
const userDatabaseFile = "user_database.json"

// ConnectDB builds the app's backends. ChorusHub persists everything as
// JSON files, so "connecting" means loading the configuration tree and the
// user database from disk. The Discord bot is constructed here but not
// started until Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cfg := configstore.New(appCfg.DataPath, logger)

	users, err := userdb.Load(filepath.Join(appCfg.StatePath, userDatabaseFile))
	if err != nil {
		return DBDeps{}, fmt.Errorf("load user database: %w", err)
	}
	logger.Info("user database loaded",
		zap.Int("users", users.UserCount()),
		zap.Int("schema_version", users.Version()))

	// Tee app logs into the in-memory ring so the panel can show recent
	// activity without touching log files.
	logBuf := logbuffer.New(appCfg.LogBufferSize)
	logger = teeLogger(logger, logBuf)

	area := staging.New(cfg, logger)
	engine := verify.New(cfg, users, logger)

	deps := DBDeps{
		Config:  cfg,
		Users:   users,
		Staging: area,
		Engine:  engine,
		LogBuf:  logBuf,

		StagingExpiry: workers.NewStagingExpiry(area, logger, appCfg.StagingSweepInterval, appCfg.StagingTTL),
		Maintenance: workers.NewMaintenance(users, engine,
			filepath.Join(appCfg.StatePath, userDatabaseFile), logger, appCfg.MaintenanceInterval),
	}

	if appCfg.DiscordToken != "" {
		bot, err := discord.New(appCfg.DiscordToken, appCfg.DiscordGuildID, engine, cfg, users, logger)
		if err != nil {
			return DBDeps{}, fmt.Errorf("create Discord bot: %w", err)
		}
		deps.Bot = bot
	}

	return deps, nil
}

// teeLogger duplicates log entries at info level and above into the ring
// buffer backing the panel's recent-activity view.
func teeLogger(logger *zap.Logger, buf *logbuffer.Buffer) *zap.Logger {
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, logbuffer.NewCore(buf, zapcore.InfoLevel))
	}))
}

// EnsureSchema creates the on-disk directory layout if it does not exist.
// The configuration tree is read in Startup, after the directories are
// guaranteed to be present.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	dirs := []string{
		filepath.Join(appCfg.DataPath, "global"),
		filepath.Join(appCfg.DataPath, "seasons"),
		appCfg.StatePath,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
