// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/chorushub/chorushub/internal/app/discord"
	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/store/staging"
	"github.com/chorushub/chorushub/internal/app/store/userdb"
	"github.com/chorushub/chorushub/internal/app/system/logbuffer"
	"github.com/chorushub/chorushub/internal/app/system/verify"
	"github.com/chorushub/chorushub/internal/app/system/workers"
)

// DBDeps holds the app's shared backends: the file-backed stores, the
// verification engine, the staging area, and the Discord bot. All fields
// are pointers, so the struct can be copied between lifecycle hooks.
type DBDeps struct {
	Config  *configstore.Store
	Users   *userdb.DB
	Staging *staging.Area
	Engine  *verify.Engine
	LogBuf  *logbuffer.Buffer

	// Bot is nil when no Discord token is configured; the web panel
	// still works without it.
	Bot *discord.Bot

	StagingExpiry *workers.StagingExpiry
	Maintenance   *workers.Maintenance
}
