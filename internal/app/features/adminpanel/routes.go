// internal/app/features/adminpanel/routes.go
package adminpanel

import (
	"github.com/chorushub/chorushub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the maintainer panel. Every route requires a
// signed-in maintainer.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(auth.RoleMaintainer))

	r.Get("/", h.ServePanel)

	// Staging workflow
	r.Post("/stage/roster", h.ServeStageRoster)
	r.Post("/stage/special", h.ServeStageSpecial)
	r.Get("/diff", h.ServeDiff)
	r.Get("/summary", h.ServeSummary)
	r.Post("/commit", h.ServeCommit)
	r.Post("/cancel", h.ServeCancel)

	// Guild scaffolding
	r.Post("/seasons/{seasonID}/scaffold", h.ServeScaffold)

	// Exports
	r.Get("/seasons/{seasonID}/users.json", h.ServeSeasonExport)
	r.Get("/users/export", h.ServeUsersExport)

	// Diagnostics
	r.Get("/logs", h.ServeLogs)

	return r
}
