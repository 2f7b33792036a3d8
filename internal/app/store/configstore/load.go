// internal/app/store/configstore/load.go
package configstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chorushub/chorushub/internal/domain/models"
	"go.uber.org/zap"
)

// Expected directory layout under the data path:
//
//	global/
//	  roles.json        role definitions
//	  permissions.json  named allow/deny permission sets
//	  assignments.json  special member assignments + maintainers
//	seasons/
//	  <season_id>/
//	    season.json     season metadata + channel layout (optional)
//	    users.json      roster (bare array or wrapped object)

// LoadAll scans the data directory and replaces the in-memory configuration.
//
// Per-file failures are never fatal: a malformed global file falls back to
// its default and is logged; a season directory with any malformed file is
// skipped entirely and reported in a single aggregated warning.
func (s *Store) LoadAll() error {
	global := defaultGlobalConfig()
	var globalWarnings []string

	globalDir := filepath.Join(s.dataPath, "global")

	var roles rolesFile
	switch err := readJSONFile(filepath.Join(globalDir, "roles.json"), &roles); {
	case err == nil:
		global.Roles = roles.Roles
	case os.IsNotExist(err):
		// optional; defaults apply
	default:
		globalWarnings = append(globalWarnings, fmt.Sprintf("roles.json: %v", err))
	}

	var perms permissionsFile
	switch err := readJSONFile(filepath.Join(globalDir, "permissions.json"), &perms); {
	case err == nil:
		global.Permissions = perms.Definitions
	case os.IsNotExist(err):
	default:
		globalWarnings = append(globalWarnings, fmt.Sprintf("permissions.json: %v", err))
	}

	var special models.SpecialMembers
	switch err := readJSONFile(filepath.Join(globalDir, "assignments.json"), &special); {
	case err == nil:
		if special.Assignments == nil {
			special.Assignments = make(map[string][]string)
		}
		global.Special = special
	case os.IsNotExist(err):
	default:
		globalWarnings = append(globalWarnings, fmt.Sprintf("assignments.json: %v", err))
	}

	if len(globalWarnings) > 0 {
		s.log.Warn("some global config files could not be loaded; defaults in effect",
			zap.Strings("files", globalWarnings))
	}

	seasons, skipped, err := s.loadSeasons()
	if err != nil {
		return err
	}
	if len(skipped) > 0 {
		s.log.Warn("skipped seasons with malformed config files",
			zap.Strings("seasons", skipped))
	}

	s.mu.Lock()
	s.global = global
	s.seasons = seasons
	s.reindexLocked()
	s.mu.Unlock()

	s.warnDuplicateIDs()

	s.log.Info("configuration loaded",
		zap.Int("seasons", len(seasons)),
		zap.Int("roles", len(global.Roles)),
		zap.Int("special_roles", len(global.Special.Assignments)))
	return nil
}

// loadSeasons walks data/seasons. A directory with a malformed season.json or
// users.json is skipped entirely; its id is returned in skipped.
func (s *Store) loadSeasons() (map[string]models.Season, []string, error) {
	seasons := make(map[string]models.Season)
	var skipped []string

	seasonsDir := filepath.Join(s.dataPath, "seasons")
	entries, err := os.ReadDir(seasonsDir)
	if os.IsNotExist(err) {
		return seasons, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read seasons directory %s: %w", seasonsDir, err)
	}

	for _, dirEntry := range entries {
		if !dirEntry.IsDir() {
			continue
		}
		seasonID := dirEntry.Name()
		if strings.HasPrefix(seasonID, ".") {
			continue
		}

		season := models.DefaultSeason(seasonID)

		metaPath := filepath.Join(seasonsDir, seasonID, "season.json")
		switch err := readJSONFile(metaPath, &season); {
		case err == nil:
			// season.json never renames a season; the directory is the key
			season.SeasonID = seasonID
			if season.DisplayName == "" {
				season.DisplayName = seasonID
			}
		case os.IsNotExist(err):
			// synthesized default stands
		default:
			s.log.Warn("malformed season.json", zap.String("season", seasonID), zap.Error(err))
			skipped = append(skipped, seasonID)
			continue
		}

		usersPath := filepath.Join(seasonsDir, seasonID, "users.json")
		raw, err := os.ReadFile(usersPath)
		switch {
		case err == nil:
			doc, perr := ParseRoster(raw)
			if perr != nil {
				s.log.Warn("malformed users.json", zap.String("season", seasonID), zap.Error(perr))
				skipped = append(skipped, seasonID)
				continue
			}
			season.Roster = doc.Entries
		case os.IsNotExist(err):
			// a season may exist before its roster arrives
		default:
			s.log.Warn("unreadable users.json", zap.String("season", seasonID), zap.Error(err))
			skipped = append(skipped, seasonID)
			continue
		}

		seasons[seasonID] = season
		s.log.Debug("loaded season",
			zap.String("season", seasonID),
			zap.Int("users", season.UserCount()),
			zap.Bool("active", season.Active))
	}

	return seasons, skipped, nil
}

// warnDuplicateIDs flags verification IDs appearing in more than one season.
// The config is still served (first season by sorted id wins on lookup), but
// operators should fix the rosters.
func (s *Store) warnDuplicateIDs() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]string) // verification id -> first season
	for _, seasonID := range s.seasonOrder {
		for _, entry := range s.seasons[seasonID].Roster {
			if first, dup := seen[entry.VerificationID]; dup && first != seasonID {
				s.log.Warn("verification id present in multiple seasons; first sorted season wins",
					zap.String("verification_id", entry.VerificationID),
					zap.String("first_season", first),
					zap.String("also_in", seasonID))
				continue
			}
			seen[entry.VerificationID] = seasonID
		}
	}
}

// readJSONFile reads and unmarshals one file. The caller distinguishes
// missing (os.IsNotExist) from malformed.
func readJSONFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

type rolesFile struct {
	Roles []models.RoleDefinition `json:"roles"`
}

type permissionsFile struct {
	Definitions map[string]models.PermissionSet `json:"definitions"`
}
