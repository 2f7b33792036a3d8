// internal/app/features/authdiscord/handler.go
package authdiscord

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// discordEndpoint is Discord's OAuth2 endpoint pair.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

const (
	stateCookieName = "chorushub-oauth-state"
	stateTTL        = 10 * time.Minute
)

// Handler handles Discord OAuth authentication for the admin panel. Only
// accounts on the maintainers allow-list may sign in.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Config     *configstore.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://chorushub.example.org/auth/discord/callback"

	// stateCodec signs the short-lived state cookie that binds the
	// callback to the browser that initiated the flow.
	stateCodec *securecookie.SecureCookie
}

// NewHandler creates a new Discord OAuth handler.
func NewHandler(cfg *configstore.Store, sessionMgr *auth.SessionManager, clientID, clientSecret, baseURL, sessionKey string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		Config:       cfg,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/discord/callback",
		stateCodec:   securecookie.New([]byte(sessionKey), nil),
	}
}

// oauth2Config returns the Discord OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"identify"},
		Endpoint:     discordEndpoint,
	}
}

// IsConfigured returns true if Discord OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// stateClaims is what the signed state cookie carries.
type stateClaims struct {
	State     string `json:"state"`
	ReturnURL string `json:"return_url"`
	ExpiresAt int64  `json:"expires_at"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/discord                                                            |
| Initiates the OAuth flow by redirecting to Discord's consent screen.         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Discord OAuth not configured")
		http.Redirect(w, r, "/login?error=discord_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	claims := stateClaims{
		State:     state,
		ReturnURL: query.Get(r, "return"),
		ExpiresAt: time.Now().Add(stateTTL).Unix(),
	}
	encoded, err := h.stateCodec.Encode(stateCookieName, claims)
	if err != nil {
		h.Log.Error("failed to encode OAuth state cookie", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth/discord",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauth2Config().AuthCodeURL(state)
	h.Log.Debug("initiating Discord OAuth flow", zap.String("redirect_url", url))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/discord/callback                                                   |
| Validates state, exchanges the code, checks the maintainer list, and signs   |
| the user in.                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Discord OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=discord_denied", http.StatusSeeOther)
		return
	}

	claims, ok := h.validateState(w, r)
	if !ok {
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	discordUser, err := fetchDiscordUser(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Discord user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	if !h.Config.IsMaintainer(discordUser.Username) {
		h.Log.Info("Discord OAuth: user not on maintainer list",
			zap.String("discord_id", discordUser.ID),
			zap.String("username", discordUser.Username))
		http.Redirect(w, r, "/login?error=not_maintainer", http.StatusSeeOther)
		return
	}

	user := &auth.SessionUser{
		ID:       discordUser.ID,
		Name:     discordUser.DisplayName(),
		Username: discordUser.Username,
		Role:     auth.RoleMaintainer,
	}
	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.Log.Error("failed to save session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.Log.Info("maintainer signed in via Discord",
		zap.String("discord_id", discordUser.ID),
		zap.String("username", discordUser.Username))

	dest := claims.ReturnURL
	if dest == "" || dest[0] != '/' || (len(dest) > 1 && dest[1] == '/') {
		dest = "/panel"
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// validateState checks the callback's state parameter against the signed
// cookie set when the flow started, and clears the cookie.
func (h *Handler) validateState(w http.ResponseWriter, r *http.Request) (stateClaims, bool) {
	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		return stateClaims{}, false
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		h.Log.Warn("missing OAuth state cookie")
		return stateClaims{}, false
	}

	// One-shot: the cookie dies whether validation succeeds or not.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Path:   "/auth/discord",
		MaxAge: -1,
	})

	var claims stateClaims
	if err := h.stateCodec.Decode(stateCookieName, cookie.Value, &claims); err != nil {
		h.Log.Warn("failed to decode OAuth state cookie", zap.Error(err))
		return stateClaims{}, false
	}
	if claims.State != state {
		h.Log.Warn("OAuth state mismatch")
		return stateClaims{}, false
	}
	if time.Now().Unix() > claims.ExpiresAt {
		h.Log.Warn("OAuth state expired")
		return stateClaims{}, false
	}
	return claims, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Discord user info                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// discordUserInfo represents user info returned from Discord's /users/@me.
type discordUserInfo struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// DisplayName prefers the global display name over the username.
func (u *discordUserInfo) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// fetchDiscordUser retrieves user information from Discord's identity endpoint.
func fetchDiscordUser(ctx context.Context, token *oauth2.Token) (*discordUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://discord.com/api/users/@me")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info discordUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState returns a cryptographically random state value.
func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
