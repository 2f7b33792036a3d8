// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, and request limits. AppConfig is where
// everything specific to ChorusHub lives: the data directory layout,
// Discord credentials, and the panel's session settings.
type AppConfig struct {
	// Data directory layout
	DataPath  string // root of the configuration tree (global/ and seasons/ live under it)
	StatePath string // directory holding the persisted user database

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: chorushub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // How long a panel session stays valid

	// Staging behavior
	StagingTTL           time.Duration // staged config older than this is discarded
	StagingSweepInterval time.Duration // how often the expiry worker runs
	MaintenanceInterval  time.Duration // how often the user database is flushed to disk

	// Discord bot configuration (both must be set to run the bot)
	DiscordToken   string // bot token
	DiscordGuildID string // the guild (server) the bot manages

	// Discord OAuth for the panel (optional; password fallback otherwise)
	DiscordClientID     string
	DiscordClientSecret string

	// Panel password fallback: a bcrypt hash. Empty disables password login.
	AdminPasswordHash string

	// Base URL for OAuth callbacks
	BaseURL string // e.g., "https://chorushub.example.org" or "http://localhost:3000"

	// Diagnostics
	LogBufferSize int // how many recent log entries the panel keeps in memory
}
