// internal/app/features/adminpanel/handler.go
package adminpanel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/store/staging"
	"github.com/chorushub/chorushub/internal/app/store/userdb"
	"github.com/chorushub/chorushub/internal/app/system/auth"
	"github.com/chorushub/chorushub/internal/app/system/logbuffer"
	"github.com/chorushub/chorushub/internal/app/system/scaffold"
	"github.com/chorushub/chorushub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// maxUploadBytes caps roster uploads. Rosters are small JSON files; anything
// near this limit is almost certainly the wrong file.
const maxUploadBytes = 10 << 20

// Scaffolder executes a season scaffold plan against the guild. Nil when the
// bot is not configured.
type Scaffolder interface {
	ApplyScaffold(plan scaffold.Plan) (created int, err error)
}

// Handler serves the maintainer panel: staging uploads, diff preview,
// commit/cancel, data exports, guild scaffolding, and the recent-log view.
type Handler struct {
	Log     *zap.Logger
	Config  *configstore.Store
	Staging *staging.Area
	Users   *userdb.DB
	Logs    *logbuffer.Buffer
	Guild   Scaffolder

	sanitize *bluemonday.Policy
}

// NewHandler creates a new admin panel handler. guild may be nil when the
// Discord bot is not running.
func NewHandler(cfg *configstore.Store, area *staging.Area, users *userdb.DB, logs *logbuffer.Buffer, guild Scaffolder, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Config:   cfg,
		Staging:  area,
		Users:    users,
		Logs:     logs,
		Guild:    guild,
		sanitize: bluemonday.StrictPolicy(),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /panel                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// seasonView is one row of the seasons table.
type seasonView struct {
	SeasonID     string
	DisplayName  string
	Active       bool
	RosterCount  int
	VerifiedHere int
	MemberRole   string
}

type panelData struct {
	Title   string
	User    *auth.SessionUser
	Message string
	Error   string

	Seasons    []seasonView
	TotalUsers int

	Staged  staging.Summary
	HasWork bool
	Diff    staging.Diff
}

var panelMessages = map[string]string{
	"staged":     "Configuration staged. Review the diff below, then commit.",
	"committed":  "Staged configuration committed and applied.",
	"scaffolded": "Season roles and channels created in the guild.",
	"cancelled":  "Staged configuration discarded.",
}

var panelErrors = map[string]string{
	"bad_upload":     "The uploaded file could not be read.",
	"bad_roster":     "The uploaded file is not a valid roster.",
	"bad_special":    "The uploaded file is not a valid special-members document.",
	"missing_season": "No season ID was provided and the file does not name one.",
	"nothing_staged": "There is nothing staged to commit.",
	"commit_partial": "Some changes could not be written. The failed entries remain staged; fix the cause and commit again.",
}

func (h *Handler) ServePanel(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	data := panelData{
		Title:      "Panel",
		User:       user,
		Message:    panelMessages[query.Get(r, "msg")],
		Error:      panelErrors[query.Get(r, "error")],
		TotalUsers: h.Users.UserCount(),
		Staged:     h.Staging.GetSummary(),
		HasWork:    h.Staging.HasStaged(),
		Diff:       h.Staging.GetDiff(),
	}

	for _, s := range h.Config.Seasons() {
		data.Seasons = append(data.Seasons, seasonView{
			SeasonID:     s.SeasonID,
			DisplayName:  h.sanitize.Sanitize(s.DisplayName),
			Active:       s.Active,
			RosterCount:  s.UserCount(),
			VerifiedHere: len(h.Users.UsersBySeason(s.SeasonID)),
			MemberRole:   s.MemberRoleName(),
		})
	}
	sort.Slice(data.Seasons, func(i, j int) bool {
		return data.Seasons[i].SeasonID < data.Seasons[j].SeasonID
	})

	templates.Render(w, r, "panel", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Staging                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeStageRoster handles POST /panel/stage/roster. The roster arrives as a
// multipart file upload; the season may come from the form field or from the
// wrapped roster format itself.
func (h *Handler) ServeStageRoster(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readUpload(w, r, "roster")
	if !ok {
		return
	}

	seasonID := r.FormValue("season_id")
	count, err := h.Staging.StageSeasonUsers(seasonID, raw, h.actor(r))
	if err != nil {
		h.Log.Warn("roster staging rejected", zap.String("season_id", seasonID), zap.Error(err))
		code := "bad_roster"
		if errors.Is(err, staging.ErrMissingSeasonID) {
			code = "missing_season"
		}
		h.redirectError(w, r, code)
		return
	}

	h.Log.Info("roster staged",
		zap.String("season_id", seasonID),
		zap.Int("users", count),
		zap.String("staged_by", h.actor(r)))
	http.Redirect(w, r, "/panel?msg=staged", http.StatusSeeOther)
}

// ServeStageSpecial handles POST /panel/stage/special.
func (h *Handler) ServeStageSpecial(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readUpload(w, r, "special")
	if !ok {
		return
	}

	if err := h.Staging.StageSpecialMembers(raw, h.actor(r)); err != nil {
		h.Log.Warn("special-members staging rejected", zap.Error(err))
		h.redirectError(w, r, "bad_special")
		return
	}

	h.Log.Info("special members staged", zap.String("staged_by", h.actor(r)))
	http.Redirect(w, r, "/panel?msg=staged", http.StatusSeeOther)
}

// ServeCommit handles POST /panel/commit.
func (h *Handler) ServeCommit(w http.ResponseWriter, r *http.Request) {
	records, err := h.Staging.Commit()
	if errors.Is(err, staging.ErrNoStagedConfig) {
		h.redirectError(w, r, "nothing_staged")
		return
	}
	if err != nil {
		// Partial failure: whatever succeeded is live, the rest stays staged.
		h.Log.Error("commit completed with failures",
			zap.Int("applied", len(records)),
			zap.Error(err))
		h.redirectError(w, r, "commit_partial")
		return
	}

	h.Log.Info("staged configuration committed",
		zap.Int("changes", len(records)),
		zap.String("committed_by", h.actor(r)))
	http.Redirect(w, r, "/panel?msg=committed", http.StatusSeeOther)
}

// ServeCancel handles POST /panel/cancel.
func (h *Handler) ServeCancel(w http.ResponseWriter, r *http.Request) {
	h.Staging.Clear()
	h.Log.Info("staged configuration discarded", zap.String("cancelled_by", h.actor(r)))
	http.Redirect(w, r, "/panel?msg=cancelled", http.StatusSeeOther)
}

// ServeDiff handles GET /panel/diff and returns the staged-vs-live diff as
// JSON for the panel's preview pane.
func (h *Handler) ServeDiff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Staging.GetDiff())
}

// ServeSummary handles GET /panel/summary.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Staging.GetSummary())
}

/*─────────────────────────────────────────────────────────────────────────────*
| Guild scaffolding                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeScaffold handles POST /panel/seasons/{seasonID}/scaffold: plan the
// season's roles and channel tree and create whatever is missing in the
// guild. Requires the bot to be connected.
func (h *Handler) ServeScaffold(w http.ResponseWriter, r *http.Request) {
	if h.Guild == nil {
		http.Error(w, "Discord bot is not configured", http.StatusServiceUnavailable)
		return
	}

	seasonID := chi.URLParam(r, "seasonID")
	season, ok := h.Config.Season(seasonID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	plan, err := scaffold.Build(h.Config.Global(), season)
	if err != nil {
		h.Log.Warn("scaffold planning failed", zap.String("season_id", seasonID), zap.Error(err))
		http.Error(w, "scaffold planning failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "guild scaffold")
	defer cancel()

	type outcome struct {
		created int
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		created, err := h.Guild.ApplyScaffold(plan)
		done <- outcome{created, err}
	}()

	select {
	case <-ctx.Done():
		// The apply keeps running; scaffolding is idempotent, so a retry
		// picks up where this attempt got to.
		http.Error(w, "scaffolding timed out; retry to resume", http.StatusGatewayTimeout)
	case out := <-done:
		if out.err != nil {
			h.Log.Error("scaffolding failed",
				zap.String("season_id", seasonID),
				zap.Int("created", out.created),
				zap.Error(out.err))
			http.Error(w, "scaffolding failed: "+out.err.Error(), http.StatusBadGateway)
			return
		}
		h.Log.Info("season scaffolded",
			zap.String("season_id", seasonID),
			zap.Int("created", out.created),
			zap.String("requested_by", h.actor(r)))
		http.Redirect(w, r, "/panel?msg=scaffolded", http.StatusSeeOther)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Exports                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSeasonExport handles GET /panel/seasons/{seasonID}/users.json and
// downloads the live roster for one season in canonical form.
func (h *Handler) ServeSeasonExport(w http.ResponseWriter, r *http.Request) {
	seasonID := chi.URLParam(r, "seasonID")
	season, ok := h.Config.Season(seasonID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	raw, err := configstore.EncodeRoster(season.Roster)
	if err != nil {
		h.Log.Error("failed to encode roster", zap.String("season_id", seasonID), zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", seasonID+"-users.json"))
	w.Write(raw)
}

// ServeUsersExport handles GET /panel/users/export and downloads the whole
// tracked-user database.
func (h *Handler) ServeUsersExport(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Users.Export()
	if err != nil {
		h.Log.Error("failed to export user database", zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="user_database.json"`)
	w.Write(raw)
}

// ServeLogs handles GET /panel/logs and returns the most recent log entries,
// oldest first. ?n= caps the count (default 100).
func (h *Handler) ServeLogs(w http.ResponseWriter, r *http.Request) {
	n := 100
	if v := query.Get(r, "n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, h.Logs.Tail(n))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// readUpload pulls one named file out of a multipart form, or the whole body
// when the client posts raw JSON (scripted uploads). On failure it has
// already redirected.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			h.Log.Warn("failed to read upload body", zap.Error(err))
			h.redirectError(w, r, "bad_upload")
			return nil, false
		}
		return raw, true
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.Log.Warn("failed to parse upload form", zap.Error(err))
		h.redirectError(w, r, "bad_upload")
		return nil, false
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		h.Log.Warn("missing upload file", zap.String("field", field), zap.Error(err))
		h.redirectError(w, r, "bad_upload")
		return nil, false
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.Log.Warn("failed to read upload", zap.Error(err))
		h.redirectError(w, r, "bad_upload")
		return nil, false
	}
	return raw, true
}

func (h *Handler) actor(r *http.Request) string {
	if user, ok := auth.CurrentUser(r); ok {
		return user.Username
	}
	return "unknown"
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/panel?error="+code, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}
