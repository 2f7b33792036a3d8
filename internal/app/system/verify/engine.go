// internal/app/system/verify/engine.go

// Package verify implements the verification flow: a Discord account presents
// a verification ID, the engine checks it against the season rosters and the
// user database, and on success records the binding and reports which roles
// the front end should apply.
package verify

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/store/userdb"
	"github.com/chorushub/chorushub/internal/domain/models"
)

// pendingTTL bounds how long a started-but-unfinished verification blocks
// the pending slot before the cleanup sweep reclaims it.
const pendingTTL = time.Hour

// Result is the outcome of one verification attempt. Failure outcomes carry
// a user-facing Message suitable for a DM reply; internal faults come back
// as an error from AttemptVerification instead.
type Result struct {
	Success bool

	// Message is shown to the user verbatim on failure.
	Message string

	DisplayName   string
	SeasonID      string
	SeasonName    string
	RolesToAssign []string
}

// Engine coordinates verification attempts. All check-then-act steps of one
// attempt run under a single exclusive lock so two accounts racing on the
// same verification ID cannot both win.
type Engine struct {
	mu      sync.Mutex
	cfg     *configstore.Store
	users   *userdb.DB
	log     *zap.Logger
	pending map[string]time.Time // discord id -> started at
}

// New creates an Engine over the live config store and user database.
func New(cfg *configstore.Store, users *userdb.DB, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		users:   users,
		log:     logger,
		pending: make(map[string]time.Time),
	}
}

// AttemptVerification runs the full flow for one (discordID, verificationID)
// pair. The checks run in a fixed order; the first failing check decides the
// reply:
//
//  1. the ID must exist on some active season roster,
//  2. the ID must not already belong to a different Discord account,
//  3. the account must not already be verified for that season.
//
// On success the user record is upserted and the roles to apply (default
// member role plus any special roles) are returned. Persisting the database
// is left to the caller so a slow disk never sits inside the lock.
func (e *Engine) AttemptVerification(discordID, verificationID, displayName string) (Result, error) {
	verificationID = strings.TrimSpace(verificationID)

	e.mu.Lock()
	defer e.mu.Unlock()

	season, entry, found := e.cfg.FindUserByVerificationID(verificationID)
	if !found {
		e.log.Info("verification id not found",
			zap.String("discord_id", discordID))
		return Result{Message: fmt.Sprintf(
			"Could not find ID '%s' in our records. Please double-check your ID and try again, or contact a staff member.",
			verificationID)}, nil
	}

	if owner, ok := e.users.FindByVerificationID(verificationID); ok && owner.DiscordID != discordID {
		e.log.Warn("verification id already bound to another account",
			zap.String("discord_id", discordID),
			zap.String("owner", owner.DiscordID),
			zap.String("season", season.SeasonID))
		return Result{Message: "This ID has already been used to verify another account."}, nil
	}

	if existing, ok := e.users.FindByDiscordID(discordID); ok {
		if _, verified := existing.VerificationIDs[season.SeasonID]; verified {
			return Result{Message: fmt.Sprintf(
				"You are already verified for season %s!", season.SeasonID)}, nil
		}
	}

	special := e.cfg.SpecialRolesFor(verificationID)
	sort.Strings(special)
	roles := []string{e.cfg.DefaultMemberRoleName()}
	if mr := season.MemberRoleName(); mr != roles[0] {
		roles = append(roles, mr)
	}
	roles = append(roles, special...)

	name := entry.Name
	if name == "" {
		name = displayName
	}

	user, ok := e.users.FindByDiscordID(discordID)
	if !ok {
		user = models.NewTrackedUser(discordID, verificationID, season.SeasonID, name, special)
	} else {
		user.AddVerificationID(season.SeasonID, verificationID)
		user.MergeSpecialRoles(special)
		user.Status = models.StatusVerified
		user.TouchLastSeen()
		if user.DisplayName == "" {
			user.DisplayName = name
		}
	}
	for _, r := range roles {
		user.AddRole(r)
	}
	e.users.UpsertUser(user)
	delete(e.pending, discordID)

	e.log.Info("verification succeeded",
		zap.String("discord_id", discordID),
		zap.String("season", season.SeasonID),
		zap.Strings("roles", roles))

	return Result{
		Success:       true,
		DisplayName:   name,
		SeasonID:      season.SeasonID,
		SeasonName:    season.DisplayName,
		RolesToAssign: roles,
	}, nil
}

// StartPending marks a Discord account as mid-verification (the front end
// has asked for the ID and is waiting on a reply). Returns false when a
// verification is already in flight for the account.
func (e *Engine) StartPending(discordID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pending[discordID]; ok {
		return false
	}
	e.pending[discordID] = time.Now()
	return true
}

// CancelPending drops a pending marker, if any.
func (e *Engine) CancelPending(discordID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, discordID)
}

// IsPending reports whether a verification is in flight for the account.
func (e *Engine) IsPending(discordID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[discordID]
	return ok
}

// SweepPending drops pending markers older than the TTL and returns how many
// were dropped. Run periodically by the background worker.
func (e *Engine) SweepPending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for id, started := range e.pending {
		if time.Since(started) > pendingTTL {
			delete(e.pending, id)
			n++
		}
	}
	if n > 0 {
		e.log.Info("swept stale pending verifications", zap.Int("count", n))
	}
	return n
}
