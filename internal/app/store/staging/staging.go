// internal/app/store/staging/staging.go

// Package staging buffers administrator-supplied configuration so it can be
// previewed (diffed) before an explicit commit makes it live and writes it to
// disk. Staged content is transient: it survives neither a restart nor the
// staging expiry timer.
package staging

import (
	"errors"
	"sync"
	"time"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoStagedConfig is returned by Commit when nothing is staged. It is a
// user error, not a fault.
var ErrNoStagedConfig = errors.New("no staged configuration to commit")

// ErrMissingSeasonID is returned by StageSeasonUsers when no season id was
// supplied and the uploaded document does not name one.
var ErrMissingSeasonID = errors.New("season id missing: not supplied and not present in the document")

// Area holds uploaded-but-not-yet-applied rosters and special member
// assignments. Staging the same season (or the special-members slot) twice
// replaces the earlier upload; there is no merging.
type Area struct {
	mu  sync.Mutex
	cfg *configstore.Store
	log *zap.Logger

	seasons  map[string][]models.RosterEntry
	special  *models.SpecialMembers
	stagedAt time.Time
	stagedBy string
}

// New creates an empty staging area bound to the live config store.
func New(cfg *configstore.Store, logger *zap.Logger) *Area {
	return &Area{
		cfg:     cfg,
		log:     logger,
		seasons: make(map[string][]models.RosterEntry),
	}
}

// StageSeasonUsers parses raw roster bytes (bare array or wrapped object)
// and stages them for seasonID, replacing any prior staged roster for that
// season. When seasonID is empty the wrapped form's season_id is used.
// Returns the staged user count.
func (a *Area) StageSeasonUsers(seasonID string, raw []byte, actor string) (int, error) {
	doc, err := configstore.ParseRoster(raw)
	if err != nil {
		return 0, err
	}

	if seasonID == "" {
		seasonID = doc.SeasonID
	}
	if seasonID == "" {
		return 0, ErrMissingSeasonID
	}

	if n := countNonUUID(doc.Entries); n > 0 {
		a.log.Warn("staged roster contains entries whose verification id is not a UUID",
			zap.String("season", seasonID),
			zap.Int("count", n))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.seasons[seasonID] = doc.Entries
	a.stagedAt = time.Now()
	a.stagedBy = actor

	a.log.Info("staged season roster",
		zap.String("season", seasonID),
		zap.Int("users", len(doc.Entries)),
		zap.String("staged_by", actor))
	return len(doc.Entries), nil
}

// StageSpecialMembers parses and stages the special member assignments
// wholesale, replacing any prior staged block.
func (a *Area) StageSpecialMembers(raw []byte, actor string) error {
	sm, err := parseSpecialMembers(raw)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.special = &sm
	a.stagedAt = time.Now()
	a.stagedBy = actor

	a.log.Info("staged special member assignments",
		zap.Int("roles", len(sm.Assignments)),
		zap.String("staged_by", actor))
	return nil
}

// Clear discards staged content without applying it. Used by the cancel
// action and the expiry timer.
func (a *Area) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearLocked()
}

// ClearExpired clears the area if the most recent stage call is older than
// ttl. Returns true when something was discarded.
func (a *Area) ClearExpired(ttl time.Duration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.emptyLocked() || time.Since(a.stagedAt) < ttl {
		return false
	}
	a.log.Info("staged configuration expired without commit",
		zap.String("staged_by", a.stagedBy),
		zap.Time("staged_at", a.stagedAt))
	a.clearLocked()
	return true
}

// HasStaged reports whether anything is staged.
func (a *Area) HasStaged() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.emptyLocked()
}

// Summary describes the staged content for display.
type Summary struct {
	Seasons        map[string]int `json:"seasons"` // season id -> user count
	SpecialMembers bool           `json:"special_members"`
	StagedAt       time.Time      `json:"staged_at,omitempty"`
	StagedBy       string         `json:"staged_by,omitempty"`
}

// GetSummary returns what is currently staged.
func (a *Area) GetSummary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum := Summary{Seasons: make(map[string]int, len(a.seasons))}
	for id, entries := range a.seasons {
		sum.Seasons[id] = len(entries)
	}
	sum.SpecialMembers = a.special != nil
	if !a.emptyLocked() {
		sum.StagedAt = a.stagedAt
		sum.StagedBy = a.stagedBy
	}
	return sum
}

func (a *Area) emptyLocked() bool {
	return len(a.seasons) == 0 && a.special == nil
}

func (a *Area) clearLocked() {
	a.seasons = make(map[string][]models.RosterEntry)
	a.special = nil
	a.stagedAt = time.Time{}
	a.stagedBy = ""
}

func countNonUUID(entries []models.RosterEntry) int {
	n := 0
	for _, e := range entries {
		if _, err := uuid.Parse(e.VerificationID); err != nil {
			n++
		}
	}
	return n
}
