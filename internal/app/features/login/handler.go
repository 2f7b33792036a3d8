// internal/app/features/login/handler.go
package login

import (
	"net/http"

	"github.com/chorushub/chorushub/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves the login page and the local password fallback. The normal
// path is Discord OAuth (the page links to /auth/discord); the password form
// exists so the panel stays reachable when OAuth is down or unconfigured.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager

	// PasswordHash is the bcrypt hash of the panel password. Empty disables
	// password login entirely.
	PasswordHash string

	DiscordEnabled bool
}

func NewHandler(sessionMgr *auth.SessionManager, passwordHash string, discordEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Log:            logger,
		SessionMgr:     sessionMgr,
		PasswordHash:   passwordHash,
		DiscordEnabled: discordEnabled,
	}
}

type loginFormData struct {
	Title           string
	Error           string
	ReturnURL       string
	DiscordEnabled  bool
	PasswordEnabled bool
}

// errorMessages maps ?error= codes (set by this handler and the OAuth
// callback) to user-facing text.
var errorMessages = map[string]string{
	"bad_password":           "Incorrect password.",
	"not_maintainer":         "Your Discord account is not on the maintainer list.",
	"discord_denied":         "Discord sign-in was cancelled.",
	"discord_not_configured": "Discord sign-in is not configured.",
	"invalid_state":          "Sign-in session expired. Please try again.",
	"token_exchange":         "Could not complete Discord sign-in. Please try again.",
	"user_info":              "Could not read your Discord profile. Please try again.",
	"internal":               "Something went wrong. Please try again.",
}

// ServeForm handles GET /login.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	data := loginFormData{
		Title:           "Sign in",
		ReturnURL:       query.Get(r, "return"),
		DiscordEnabled:  h.DiscordEnabled,
		PasswordEnabled: h.PasswordHash != "",
	}
	if code := query.Get(r, "error"); code != "" {
		if msg, ok := errorMessages[code]; ok {
			data.Error = msg
		} else {
			data.Error = errorMessages["internal"]
		}
	}
	templates.Render(w, r, "login", data)
}

// ServePassword handles POST /login: the local password fallback.
func (h *Handler) ServePassword(w http.ResponseWriter, r *http.Request) {
	if h.PasswordHash == "" {
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	password := r.PostFormValue("password")
	if err := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(password)); err != nil {
		h.Log.Warn("password login failed", zap.String("remote", r.RemoteAddr))
		http.Redirect(w, r, "/login?error=bad_password", http.StatusSeeOther)
		return
	}

	user := &auth.SessionUser{
		ID:       "local",
		Name:     "Administrator",
		Username: "local",
		Role:     auth.RoleMaintainer,
	}
	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.Log.Error("failed to save session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.Log.Info("password login succeeded", zap.String("remote", r.RemoteAddr))
	http.Redirect(w, r, safeReturnURL(r.PostFormValue("return")), http.StatusSeeOther)
}

// safeReturnURL keeps redirects on-site. Anything absolute or schemeful
// falls back to the panel.
func safeReturnURL(ret string) string {
	if ret == "" || ret[0] != '/' || (len(ret) > 1 && ret[1] == '/') {
		return "/panel"
	}
	return ret
}
