// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminpanelfeature "github.com/chorushub/chorushub/internal/app/features/adminpanel"
	authdiscordfeature "github.com/chorushub/chorushub/internal/app/features/authdiscord"
	healthfeature "github.com/chorushub/chorushub/internal/app/features/health"
	loginfeature "github.com/chorushub/chorushub/internal/app/features/login"
	logoutfeature "github.com/chorushub/chorushub/internal/app/features/logout"
	"github.com/chorushub/chorushub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. ChorusHub's web surface is small: a
// health endpoint, the sign-in pages, and the maintainer panel. The Discord
// bot runs on its own gateway connection and is not part of this handler.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	logger = teeLogger(logger, deps.LogBuf)

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Config, deps.Users, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Authentication
	discordOAuth := appCfg.DiscordClientID != ""
	loginHandler := loginfeature.NewHandler(sessionMgr, appCfg.AdminPasswordHash, discordOAuth, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	if discordOAuth {
		oauthHandler := authdiscordfeature.NewHandler(deps.Config, sessionMgr,
			appCfg.DiscordClientID, appCfg.DiscordClientSecret, appCfg.BaseURL, appCfg.SessionKey, logger)
		r.Mount("/auth/discord", authdiscordfeature.Routes(oauthHandler))
	}

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	r.Get("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "You do not have access to this page.", http.StatusForbidden)
	})

	// Maintainer panel
	var guild adminpanelfeature.Scaffolder
	if deps.Bot != nil {
		guild = deps.Bot
	}
	panelHandler := adminpanelfeature.NewHandler(deps.Config, deps.Staging, deps.Users, deps.LogBuf, guild, logger)
	r.Mount("/panel", adminpanelfeature.Routes(panelHandler, sessionMgr))

	// The root redirects to the panel, which in turn bounces anonymous
	// visitors to the login page.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/panel", http.StatusSeeOther)
	})

	return r, nil
}
