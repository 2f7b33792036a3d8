// internal/app/store/staging/commit.go
package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/system/atomicfile"
	"go.uber.org/zap"
)

// Commit persists every staged entry to disk and folds it into the live
// config store. Entries are processed independently: a successful entry is
// written, applied, and drained from the staging area; a failed entry stays
// staged so the administrator can retry or cancel. Commit returns the change
// records for the successes together with any accumulated write errors.
//
// Commit with nothing staged returns ErrNoStagedConfig and touches no files.
func (a *Area) Commit() ([]ChangeRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.emptyLocked() {
		return nil, ErrNoStagedConfig
	}

	var changes []ChangeRecord
	var errs []error

	for _, seasonID := range sortedSeasonIDs(a.seasons) {
		entries := a.seasons[seasonID]

		path := filepath.Join(a.cfg.DataPath(), "seasons", seasonID, "users.json")
		raw, err := configstore.EncodeRoster(entries)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode roster for season %s: %w", seasonID, err))
			continue
		}
		if err := atomicfile.WriteFile(path, raw, 0o644); err != nil {
			a.log.Error("failed to write staged roster; entry remains staged",
				zap.String("season", seasonID), zap.Error(err))
			errs = append(errs, fmt.Errorf("write roster for season %s: %w", seasonID, err))
			continue
		}

		a.cfg.ReplaceSeason(seasonID, entries)
		delete(a.seasons, seasonID)

		changes = append(changes, ChangeRecord{
			Type:       ChangeAdd,
			EntityType: "season",
			EntityName: seasonID,
			Details:    fmt.Sprintf("saved %d users to seasons/%s/users.json", len(entries), seasonID),
		})
	}

	if a.special != nil {
		path := filepath.Join(a.cfg.DataPath(), "global", "assignments.json")
		raw, err := json.MarshalIndent(a.special, "", "  ")
		if err != nil {
			errs = append(errs, fmt.Errorf("encode special members: %w", err))
		} else if err := atomicfile.WriteFile(path, raw, 0o644); err != nil {
			a.log.Error("failed to write staged special members; entry remains staged", zap.Error(err))
			errs = append(errs, fmt.Errorf("write special members: %w", err))
		} else {
			a.cfg.ReplaceSpecialMembers(*a.special)
			changes = append(changes, ChangeRecord{
				Type:       ChangeAdd,
				EntityType: "special_members",
				EntityName: "assignments.json",
				Details:    fmt.Sprintf("saved %d roles", len(a.special.Assignments)),
			})
			a.special = nil
		}
	}

	if a.emptyLocked() {
		a.stagedAt = time.Time{}
		a.stagedBy = ""
	}

	a.log.Info("commit finished",
		zap.Int("applied", len(changes)),
		zap.Int("failed", len(errs)))
	return changes, errors.Join(errs...)
}
