// internal/app/store/configstore/store.go
package configstore

import (
	"sort"
	"sync"

	"github.com/chorushub/chorushub/internal/domain/models"
	"go.uber.org/zap"
)

// Store materializes the global configuration and all seasons from the data
// directory and answers read queries. It is safe for concurrent use; reads
// take a shared lock, LoadAll and Replace* take an exclusive one.
type Store struct {
	mu       sync.RWMutex
	dataPath string
	log      *zap.Logger

	seasons map[string]models.Season

	// seasonOrder holds season IDs sorted ascending. Lookups that scan
	// seasons walk this slice so that a verification ID duplicated across
	// seasons resolves deterministically to the first season by sorted id.
	seasonOrder []string

	global models.GlobalConfig
}

// New creates a Store rooted at dataPath (the directory holding global/ and
// seasons/). Call LoadAll before serving queries.
func New(dataPath string, logger *zap.Logger) *Store {
	return &Store{
		dataPath: dataPath,
		log:      logger,
		seasons:  make(map[string]models.Season),
		global:   defaultGlobalConfig(),
	}
}

// DataPath returns the directory the store was loaded from.
func (s *Store) DataPath() string {
	return s.dataPath
}

// Season returns a season by id.
func (s *Store) Season(seasonID string) (models.Season, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	season, ok := s.seasons[seasonID]
	return season, ok
}

// Seasons returns all loaded seasons sorted by season id.
func (s *Store) Seasons() []models.Season {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Season, 0, len(s.seasonOrder))
	for _, id := range s.seasonOrder {
		out = append(out, s.seasons[id])
	}
	return out
}

// SeasonCount returns the number of loaded seasons.
func (s *Store) SeasonCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seasons)
}

// FindUserByVerificationID scans active seasons in sorted season-id order and
// returns the first roster entry carrying the ID.
func (s *Store) FindUserByVerificationID(verificationID string) (models.Season, models.RosterEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.seasonOrder {
		season := s.seasons[id]
		if !season.Active {
			continue
		}
		if entry := season.FindEntry(verificationID); entry != nil {
			return season, *entry, true
		}
	}
	return models.Season{}, models.RosterEntry{}, false
}

// SpecialRolesFor returns every special role assigned to the verification ID.
func (s *Store) SpecialRolesFor(verificationID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global.Special.RolesFor(verificationID)
}

// DefaultMemberRoleName returns the role flagged default-member in
// roles.json, or the hardcoded fallback.
func (s *Store) DefaultMemberRoleName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if role := s.global.DefaultMemberRole(); role != nil {
		return role.Name
	}
	return models.DefaultMemberRoleName
}

// Global returns a copy of the global configuration.
func (s *Store) Global() models.GlobalConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global
}

// IsMaintainer reports whether the Discord username is on the admin panel
// allow-list.
func (s *Store) IsMaintainer(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global.Special.IsMaintainer(username)
}

// ReplaceSeason installs or updates a season in memory, preserving metadata
// of an existing season when only the roster changed. Used by the staging
// commit path after the season's roster file has been written.
func (s *Store) ReplaceSeason(seasonID string, roster []models.RosterEntry) models.Season {
	s.mu.Lock()
	defer s.mu.Unlock()

	season, ok := s.seasons[seasonID]
	if !ok {
		season = models.DefaultSeason(seasonID)
	}
	season.Roster = roster
	s.seasons[seasonID] = season
	s.reindexLocked()
	return season
}

// ReplaceSpecialMembers swaps the in-memory special member assignments.
func (s *Store) ReplaceSpecialMembers(sm models.SpecialMembers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.Special = sm
}

func (s *Store) reindexLocked() {
	s.seasonOrder = s.seasonOrder[:0]
	for id := range s.seasons {
		s.seasonOrder = append(s.seasonOrder, id)
	}
	sort.Strings(s.seasonOrder)
}
