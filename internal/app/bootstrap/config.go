// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ChorusHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: data_path, session_name, etc.
//   - Environment variables: CHORUSHUB_DATA_PATH, CHORUSHUB_SESSION_NAME, etc.
//   - Command-line flags: --data_path, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "data_path", Default: "./data", Desc: "Root of the configuration tree (global/ and seasons/)"},
	{Name: "state_path", Default: "./state", Desc: "Directory holding the persisted user database"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "chorushub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Panel session lifetime (e.g., 24h, 8h)"},

	// Staging behavior
	{Name: "staging_ttl", Default: "2m", Desc: "Staged configuration older than this is discarded"},
	{Name: "staging_sweep_interval", Default: "30s", Desc: "How often the staging expiry worker runs"},
	{Name: "maintenance_interval", Default: "1m", Desc: "How often the user database is flushed to disk"},

	// Discord bot
	{Name: "discord_token", Default: "", Desc: "Discord bot token (empty disables the bot)"},
	{Name: "discord_guild_id", Default: "", Desc: "Discord guild (server) ID the bot manages"},

	// Discord OAuth for the panel
	{Name: "discord_client_id", Default: "", Desc: "Discord OAuth2 client ID"},
	{Name: "discord_client_secret", Default: "", Desc: "Discord OAuth2 client secret"},

	// Panel password fallback
	{Name: "admin_password_hash", Default: "", Desc: "bcrypt hash for panel password login (empty disables it)"},

	// Base URL for OAuth callbacks
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth callbacks"},

	// Diagnostics
	{Name: "log_buffer_size", Default: 200, Desc: "Recent log entries kept in memory for the panel"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CHORUSHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CHORUSHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		DataPath:  appValues.String("data_path"),
		StatePath: appValues.String("state_path"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		StagingTTL:           appValues.Duration("staging_ttl", 2*time.Minute),
		StagingSweepInterval: appValues.Duration("staging_sweep_interval", 30*time.Second),
		MaintenanceInterval:  appValues.Duration("maintenance_interval", time.Minute),

		DiscordToken:   appValues.String("discord_token"),
		DiscordGuildID: appValues.String("discord_guild_id"),

		DiscordClientID:     appValues.String("discord_client_id"),
		DiscordClientSecret: appValues.String("discord_client_secret"),

		AdminPasswordHash: appValues.String("admin_password_hash"),

		BaseURL: appValues.String("base_url"),

		LogBufferSize: appValues.Int("log_buffer_size"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.DataPath == "" {
		return fmt.Errorf("data_path must not be empty")
	}
	if appCfg.StatePath == "" {
		return fmt.Errorf("state_path must not be empty")
	}

	if coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters in production")
	}

	// The bot needs both halves of its identity.
	if (appCfg.DiscordToken == "") != (appCfg.DiscordGuildID == "") {
		return fmt.Errorf("discord_token and discord_guild_id must be set together")
	}
	if appCfg.DiscordToken == "" {
		logger.Warn("Discord bot disabled: no token configured")
	}

	// OAuth credentials come in pairs too.
	if (appCfg.DiscordClientID == "") != (appCfg.DiscordClientSecret == "") {
		return fmt.Errorf("discord_client_id and discord_client_secret must be set together")
	}

	if appCfg.DiscordClientID == "" && appCfg.AdminPasswordHash == "" {
		logger.Warn("no panel sign-in method configured: set discord_client_id/secret or admin_password_hash")
	}

	return nil
}
